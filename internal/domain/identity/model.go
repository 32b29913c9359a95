package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResidentialStatus determines whether a patient qualifies for the resident
// subsidy on hospital bills.
type ResidentialStatus string

const (
	Citizen           ResidentialStatus = "CITIZEN"
	PermanentResident ResidentialStatus = "PERMANENT_RESIDENT"
	Foreigner         ResidentialStatus = "FOREIGNER"
)

func ParseResidentialStatus(s string) (ResidentialStatus, error) {
	switch st := ResidentialStatus(strings.ToUpper(s)); st {
	case Citizen, PermanentResident, Foreigner:
		return st, nil
	default:
		return "", fmt.Errorf("unknown residential status: %s", s)
	}
}

// IsResident reports whether the status qualifies for subsidised rates.
func (s ResidentialStatus) IsResident() bool {
	return s == Citizen || s == PermanentResident
}

// Patient maps to the patient table.
type Patient struct {
	ID                uuid.UUID         `db:"id" json:"id"`
	MRN               string            `db:"mrn" json:"mrn"`
	FirstName         string            `db:"first_name" json:"first_name"`
	LastName          string            `db:"last_name" json:"last_name"`
	BirthDate         *time.Time        `db:"birth_date" json:"birth_date,omitempty"`
	Gender            *string           `db:"gender" json:"gender,omitempty"`
	ResidentialStatus ResidentialStatus `db:"residential_status" json:"residential_status"`
	PhoneMobile       *string           `db:"phone_mobile" json:"phone_mobile,omitempty"`
	Email             *string           `db:"email" json:"email,omitempty"`
	AddressLine1      *string           `db:"address_line1" json:"address_line1,omitempty"`
	City              *string           `db:"city" json:"city,omitempty"`
	PostalCode        *string           `db:"postal_code" json:"postal_code,omitempty"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at" json:"updated_at"`
}

// Resident reports whether the patient qualifies for the resident discount.
func (p *Patient) Resident() bool {
	return p.ResidentialStatus.IsResident()
}
