package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wcu-registry/internal/platform/httpclient"
	"wcu-registry/internal/ports/email"
)

const defaultBaseURL = "https://api.sendgrid.com"

type Config struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
	// MaxRetries para 429/5xx. 0 => 3.
	MaxRetries int
}

// Sender envía por la Mail Send API v3 de SendGrid.
type Sender struct {
	http *httpclient.Client
	key  string
	from address
}

func New(cfg Config) (*Sender, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("sendgrid: api key required")
	}
	if strings.TrimSpace(cfg.FromEmail) == "" {
		return nil, errors.New("sendgrid: from email required")
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}

	c, err := httpclient.NewWithBaseURL(base, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	c.MaxRetries = cfg.MaxRetries
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}

	return &Sender{
		http: c,
		key:  strings.TrimSpace(cfg.APIKey),
		from: address{Email: strings.TrimSpace(cfg.FromEmail), Name: strings.TrimSpace(cfg.FromName)},
	}, nil
}

// --- wire ---

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	ReplyTo          *address          `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
	Categories       []string          `json:"categories,omitempty"`
}

func (s *Sender) Send(ctx context.Context, msg email.Message) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return errors.New("sendgrid: recipient required")
	}
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		return errors.New("sendgrid: subject required")
	}

	// text/plain tiene que ir antes que text/html.
	contents := make([]content, 0, 2)
	if t := strings.TrimSpace(msg.Text); t != "" {
		contents = append(contents, content{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		contents = append(contents, content{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return errors.New("sendgrid: text or html content required")
	}

	wire := mailSendRequest{
		Personalizations: []personalization{{To: []address{{Email: to, Name: strings.TrimSpace(msg.ToName)}}}},
		From:             s.from,
		Subject:          subject,
		Content:          contents,
	}
	if rt := strings.TrimSpace(msg.ReplyTo); rt != "" {
		wire.ReplyTo = &address{Email: rt}
	}
	if msg.Template != "" {
		wire.Categories = []string{msg.Template}
	}

	_, err := s.http.Do(ctx, http.MethodPost, "/v3/mail/send", map[string]string{
		"Authorization": "Bearer " + s.key,
	}, wire, nil)
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	return nil
}
