package support

import "time"

type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusAnswered, StatusClosed:
		return true
	}
	return false
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// Ticket es una conversación de soporte. Reference (T-XXXXXXXX) viaja en el
// asunto de los emails para enlazar las respuestas.
type Ticket struct {
	ID        string
	Reference string

	Name  string
	Email string

	Subject        string
	Status         Status
	RegistrationID string // opcional

	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt time.Time
}

type Message struct {
	ID        string
	TicketID  string
	Direction Direction
	From      string
	Body      string
	CreatedAt time.Time
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}
