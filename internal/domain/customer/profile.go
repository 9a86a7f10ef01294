package customer

import (
	"context"
	"errors"
)

// Segment is the commercial segment owned by the customer directory
type Segment string

const (
	SegmentPersonal    Segment = "PERSONAL"
	SegmentEmpresarial Segment = "EMPRESARIAL"
	SegmentVIP         Segment = "VIP"
	SegmentPYME        Segment = "PYME"
)

// Valid reports whether s is one of the known segments
func (s Segment) Valid() bool {
	switch s {
	case SegmentPersonal, SegmentEmpresarial, SegmentVIP, SegmentPYME:
		return true
	}
	return false
}

// Profile is the read-only view of a customer returned by the directory
type Profile struct {
	ID                  string  `json:"id"`
	Segment             Segment `json:"type"`
	Email               string  `json:"email,omitempty"`
	Phone               string  `json:"phone,omitempty"`
	FirstName           string  `json:"firstName,omitempty"`
	LastName            string  `json:"lastName,omitempty"`
	DNI                 string  `json:"dni,omitempty"`
	BusinessName        string  `json:"businessName,omitempty"`
	RUC                 string  `json:"ruc,omitempty"`
	LegalRepresentative string  `json:"legalRepresentative,omitempty"`
}

// ErrCustomerNotFound is returned by a Directory when the id is unknown
var ErrCustomerNotFound = errors.New("customer not found")

// Directory resolves customer identifiers against the customer service
type Directory interface {
	// GetCustomerByID returns ErrCustomerNotFound for unknown ids and a transport
	// error for network or timeout failures.
	GetCustomerByID(ctx context.Context, id string) (*Profile, error)
}
