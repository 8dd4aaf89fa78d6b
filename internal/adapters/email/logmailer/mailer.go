package logmailer

import (
	"context"
	"sync"

	"wcu-registry/internal/platform/logger"
	"wcu-registry/internal/ports/email"
)

// Mailer no envía nada: loguea el mensaje y lo guarda (dev y tests).
type Mailer struct {
	log logger.Logger

	mu   sync.Mutex
	sent []email.Message
}

func New(log logger.Logger) *Mailer {
	if log == nil {
		log = logger.Nop()
	}
	return &Mailer{log: log.With(map[string]any{"component": "logmailer"})}
}

func (m *Mailer) Send(ctx context.Context, msg email.Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	m.log.Info("email (not sent)", map[string]any{
		"to":       msg.To,
		"subject":  msg.Subject,
		"template": msg.Template,
	})
	m.log.Debug("email body", map[string]any{"text": msg.Text})
	return nil
}

// Sent devuelve una copia de los mensajes registrados.
func (m *Mailer) Sent() []email.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.Message(nil), m.sent...)
}
