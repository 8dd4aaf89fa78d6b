package registrations

import (
	"strings"
	"time"
)

// Status del registro. Flujo: pending_payment -> registered -> memorial.
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusRegistered     Status = "registered"
	StatusMemorial       Status = "memorial"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusRegistered, StatusMemorial:
		return true
	}
	return false
}

// IsPublic indica si el perfil se puede mostrar en el registro público.
func (s Status) IsPublic() bool {
	return s == StatusRegistered || s == StatusMemorial
}

// Sex del perro.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

func ParseSex(s string) (Sex, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale, true
	case "female", "f":
		return SexFemale, true
	case "", "unknown":
		return SexUnknown, true
	}
	return "", false
}

// Registration es el registro de un perro con su número WCU.
type Registration struct {
	ID        string
	WCUNumber string

	OwnerUserID string // vacío si se registró sin cuenta
	OwnerName   string
	OwnerEmail  string
	OwnerPhone  string

	DogName   string
	Breed     string
	Sex       Sex
	Color     string
	BirthDate *time.Time
	PhotoURL  string
	Bio       string

	Status Status

	// Memorial
	DateOfPassing  *time.Time
	TributeMessage string

	// Certificado (PDF en object storage)
	CertificateKey      string
	CertificateURL      string
	CertificateIssuedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PatchDate distingue "no enviado" de "null" (limpiar) en un PATCH.
type PatchDate struct {
	Present bool
	Value   *time.Time
}

// SearchFilter para el listado admin y el buscador público.
type SearchFilter struct {
	Statuses []Status
	Query    string // nombre del perro, dueño, email o número WCU
	Limit    int
	Offset   int

	// Public excluye el email del dueño de la búsqueda.
	Public bool
}

type Page struct {
	Items []Registration
	Total int
}

// PublicProfile es la vista sin datos de contacto del dueño.
type PublicProfile struct {
	WCUNumber string
	DogName   string
	Breed     string
	Sex       Sex
	Color     string
	BirthDate *time.Time
	PhotoURL  string
	Bio       string
	OwnerName string
	Status    Status

	IsMemorial     bool
	DateOfPassing  *time.Time
	TributeMessage string

	CertificateAvailable bool
	RegisteredAt         time.Time
}

// ToPublic devuelve false si el registro todavía no es público.
func ToPublic(r Registration) (PublicProfile, bool) {
	if !r.Status.IsPublic() {
		return PublicProfile{}, false
	}
	p := PublicProfile{
		WCUNumber:            r.WCUNumber,
		DogName:              r.DogName,
		Breed:                r.Breed,
		Sex:                  r.Sex,
		Color:                r.Color,
		BirthDate:            r.BirthDate,
		PhotoURL:             r.PhotoURL,
		Bio:                  r.Bio,
		OwnerName:            r.OwnerName,
		Status:               r.Status,
		CertificateAvailable: r.CertificateURL != "",
		RegisteredAt:         r.CreatedAt,
	}
	if r.Status == StatusMemorial {
		p.IsMemorial = true
		p.DateOfPassing = r.DateOfPassing
		p.TributeMessage = r.TributeMessage
	}
	return p, true
}
