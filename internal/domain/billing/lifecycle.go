package billing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func (b *Bill) conflict(op string) error {
	return fmt.Errorf("%w: cannot %s bill %s in status %s", ErrStateConflict, op, b.BillNumber, b.Status)
}

// SubmitForProcessing moves a draft bill into SUBMITTED.
func (b *Bill) SubmitForProcessing() error {
	if b.Status != BillDraft {
		return b.conflict("submit")
	}
	b.Status = BillSubmitted
	return nil
}

// ApproveInsurance records the insurer's approval of a pending evaluation.
func (b *Bill) ApproveInsurance() error {
	if b.Status != BillInsurancePending {
		return b.conflict("approve insurance on")
	}
	b.Status = BillInsuranceApproved
	return nil
}

// RejectInsurance records the insurer's rejection of a pending evaluation.
func (b *Bill) RejectInsurance() error {
	if b.Status != BillInsurancePending {
		return b.conflict("reject insurance on")
	}
	b.Status = BillInsuranceRejected
	return nil
}

// RecordPartialPayment settles part of the bill. The amount must be positive
// and below the outstanding balance, so repeated partials can never drive the
// settled amount past the grand total; a payment clearing the balance must go
// through RecordFullPayment.
func (b *Bill) RecordPartialPayment(amount decimal.Decimal, method PaymentMethod) error {
	if b.Status.Finalized() {
		return b.conflict("record a payment on")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("payment amount must be positive")
	}
	if amount.GreaterThanOrEqual(b.OutstandingBalance()) {
		return fmt.Errorf("payment of %s clears the outstanding balance, record a full payment instead", amount)
	}
	b.SettledAmount = b.SettledAmount.Add(amount)
	b.PaymentMethod = method
	b.Status = BillPartiallyPaid
	return nil
}

// RecordFullPayment settles the bill in full and finalizes it as PAID.
func (b *Bill) RecordFullPayment(method PaymentMethod) error {
	if b.Status.Finalized() {
		return b.conflict("record a payment on")
	}
	b.SettledAmount = b.GrandTotal()
	b.PaymentMethod = method
	b.Status = BillPaid
	return nil
}

// CancelBill finalizes the bill as CANCELLED.
func (b *Bill) CancelBill() error {
	if b.Status.Finalized() {
		return b.conflict("cancel")
	}
	b.Status = BillCancelled
	return nil
}

// InitiateRefund opens a refund for a paid or partially paid bill.
func (b *Bill) InitiateRefund() error {
	if b.Status != BillPaid && b.Status != BillPartiallyPaid {
		return b.conflict("refund")
	}
	b.Status = BillRefundPending
	return nil
}

// CompleteRefund finalizes a pending refund and returns the settled amount.
func (b *Bill) CompleteRefund() error {
	if b.Status != BillRefundPending {
		return b.conflict("complete a refund on")
	}
	b.SettledAmount = decimal.Zero
	b.Status = BillRefunded
	return nil
}

// MarkAsOverdue flags an unpaid bill past its terms.
func (b *Bill) MarkAsOverdue() error {
	if b.Status.Finalized() || b.Status == BillOverdue {
		return b.conflict("mark overdue")
	}
	b.Status = BillOverdue
	return nil
}

// MarkInDispute flags the bill as contested by the patient.
func (b *Bill) MarkInDispute() error {
	if b.Status.Finalized() || b.Status == BillInDispute {
		return b.conflict("dispute")
	}
	b.Status = BillInDispute
	return nil
}
