package billing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Visit is an inpatient or emergency encounter that can be billed. Only
// finalized visits may be billed.
type Visit interface {
	Finalized() bool
	Emergency() bool
	BillableItems() []BillableItem
}

// Consultation is an outpatient encounter that can be billed.
type Consultation interface {
	BillableItems() []BillableItem
}

// quantified lets an encounter item carry its own unit count. Items without
// it bill a single unit.
type quantified interface {
	Quantity() int
}

func itemQuantity(item BillableItem) int {
	if q, ok := item.(quantified); ok && q.Quantity() > 0 {
		return q.Quantity()
	}
	return 1
}

// Builder assembles a draft bill from a patient's encounters. Exactly one
// encounter source is required: a finalized visit, or one or more
// consultations.
type Builder struct {
	patientID     uuid.UUID
	policyID      *uuid.UUID
	resident      bool
	visit         Visit
	consultations []Consultation
}

func NewBuilder(patientID uuid.UUID) *Builder {
	return &Builder{patientID: patientID}
}

// WithPolicy attaches the patient's insurance policy to the bill.
func (bb *Builder) WithPolicy(policyID uuid.UUID) *Builder {
	bb.policyID = &policyID
	return bb
}

// AsResident applies the resident subsidy to the bill.
func (bb *Builder) AsResident(resident bool) *Builder {
	bb.resident = resident
	return bb
}

// WithVisit bills an inpatient or emergency visit.
func (bb *Builder) WithVisit(v Visit) *Builder {
	bb.visit = v
	return bb
}

// WithConsultation bills an outpatient consultation. May be called multiple
// times to bundle several consultations into one bill.
func (bb *Builder) WithConsultation(c Consultation) *Builder {
	bb.consultations = append(bb.consultations, c)
	return bb
}

// Build validates the configuration and produces a draft bill with one line
// per billable item.
func (bb *Builder) Build() (*Bill, error) {
	if bb.patientID == uuid.Nil {
		return nil, fmt.Errorf("patient is required")
	}
	if bb.visit == nil && len(bb.consultations) == 0 {
		return nil, fmt.Errorf("a visit or at least one consultation is required")
	}
	if bb.visit != nil && !bb.visit.Finalized() {
		return nil, fmt.Errorf("visit must be finalized before billing")
	}

	now := time.Now()
	b := &Bill{
		ID:            uuid.New(),
		BillNumber:    newBillNumber(now),
		PatientID:     bb.patientID,
		PolicyID:      bb.policyID,
		Resident:      bb.resident,
		Status:        BillDraft,
		PaymentMethod: PayNotApplicable,
		SettledAmount: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if bb.visit != nil {
		b.Inpatient = true
		b.Emergency = bb.visit.Emergency()
		for _, item := range bb.visit.BillableItems() {
			if _, err := b.AddLineItem(item, itemQuantity(item)); err != nil {
				return nil, err
			}
		}
	}
	for _, cons := range bb.consultations {
		for _, item := range cons.BillableItems() {
			if _, err := b.AddLineItem(item, itemQuantity(item)); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}

func newBillNumber(now time.Time) string {
	return fmt.Sprintf("BILL-%s-%04d", now.Format("20060102"), rand.Intn(10000))
}
