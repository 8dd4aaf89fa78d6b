package updaterequests

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// UpdateRequest es un pedido del dueño para cambiar su registro.
// Changes guarda solo keys canónicas y valores ya normalizados
// (strings, "YYYY-MM-DD" o nil para fechas, bool para memorialize).
type UpdateRequest struct {
	ID             string
	RegistrationID string

	RequesterUserID string
	RequesterEmail  string

	Changes map[string]any
	Status  Status

	AdminNotes string
	ReviewedBy string

	CreatedAt  time.Time
	ReviewedAt *time.Time
}

// FieldChange es una fila del diff que ve el admin.
type FieldChange struct {
	Field    string `json:"field"`
	Current  any    `json:"current"`
	Proposed any    `json:"proposed"`
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}
