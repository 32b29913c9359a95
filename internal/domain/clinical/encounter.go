package clinical

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/insurance"
)

// Visit is an inpatient or emergency encounter. It accumulates charges while
// open; discharge adds the ward accommodation charge and finalizes it for
// billing. Implements billing.Visit.
type Visit struct {
	id           uuid.UUID
	patientID    uuid.UUID
	ward         insurance.WardClassType
	emergency    bool
	admittedAt   time.Time
	dischargedAt *time.Time
	charges      []ChargeItem
}

func NewVisit(patientID uuid.UUID, ward insurance.WardClassType, emergency bool, admittedAt time.Time) (*Visit, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if ward.DailyRate().IsZero() {
		return nil, fmt.Errorf("unknown ward class: %s", ward)
	}
	return &Visit{
		id:         uuid.New(),
		patientID:  patientID,
		ward:       ward,
		emergency:  emergency,
		admittedAt: admittedAt,
	}, nil
}

func (v *Visit) ID() uuid.UUID                 { return v.id }
func (v *Visit) PatientID() uuid.UUID          { return v.patientID }
func (v *Visit) Ward() insurance.WardClassType { return v.ward }
func (v *Visit) AdmittedAt() time.Time         { return v.admittedAt }
func (v *Visit) DischargedAt() *time.Time      { return v.dischargedAt }
func (v *Visit) Charges() []ChargeItem         { return v.charges }

func (v *Visit) AddCharge(item ChargeItem) error {
	if v.Finalized() {
		return fmt.Errorf("visit is discharged, no further charges")
	}
	v.charges = append(v.charges, item)
	return nil
}

// Discharge closes the visit, appending the accommodation charge for the
// stay. Stays shorter than a day bill one day.
func (v *Visit) Discharge(now time.Time) error {
	if v.Finalized() {
		return fmt.Errorf("visit is already discharged")
	}
	if now.Before(v.admittedAt) {
		return fmt.Errorf("discharge before admission")
	}
	days := int(now.Sub(v.admittedAt).Hours()/24) + 1
	wardCharge, err := NewWardCharge(v.ward, days)
	if err != nil {
		return err
	}
	v.charges = append(v.charges, wardCharge)
	v.dischargedAt = &now
	return nil
}

func (v *Visit) Finalized() bool { return v.dischargedAt != nil }
func (v *Visit) Emergency() bool { return v.emergency }

func (v *Visit) BillableItems() []billing.BillableItem {
	items := make([]billing.BillableItem, len(v.charges))
	for i, c := range v.charges {
		items[i] = c
	}
	return items
}

// Consultation is an outpatient encounter. Implements billing.Consultation.
type Consultation struct {
	id        uuid.UUID
	patientID uuid.UUID
	seenAt    time.Time
	charges   []ChargeItem
}

func NewConsultation(patientID uuid.UUID, seenAt time.Time) (*Consultation, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	return &Consultation{id: uuid.New(), patientID: patientID, seenAt: seenAt}, nil
}

func (c *Consultation) ID() uuid.UUID         { return c.id }
func (c *Consultation) PatientID() uuid.UUID  { return c.patientID }
func (c *Consultation) SeenAt() time.Time     { return c.seenAt }
func (c *Consultation) Charges() []ChargeItem { return c.charges }

func (c *Consultation) AddCharge(item ChargeItem) {
	c.charges = append(c.charges, item)
}

func (c *Consultation) BillableItems() []billing.BillableItem {
	items := make([]billing.BillableItem, len(c.charges))
	for i, ch := range c.charges {
		items[i] = ch
	}
	return items
}

var (
	_ billing.Visit        = (*Visit)(nil)
	_ billing.Consultation = (*Consultation)(nil)
)
