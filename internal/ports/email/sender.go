package email

import "context"

// Message es un email transaccional ya renderizado.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string

	// ReplyTo opcional (p.ej. la casilla de soporte).
	ReplyTo string

	// Template solo se usa para métricas/logs.
	Template string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}
