package claims

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrStateConflict marks a claim lifecycle violation, such as submitting a
// claim twice or approving one that is not under review. Handlers map it
// to 409.
var ErrStateConflict = errors.New("state conflict")

// ClaimStatus is the lifecycle state of an insurance claim.
type ClaimStatus string

const (
	StatusDraft              ClaimStatus = "DRAFT"
	StatusSubmitted          ClaimStatus = "SUBMITTED"
	StatusInReview           ClaimStatus = "IN_REVIEW"
	StatusPendingInformation ClaimStatus = "PENDING_INFORMATION"
	StatusApproved           ClaimStatus = "APPROVED"
	StatusPartiallyApproved  ClaimStatus = "PARTIALLY_APPROVED"
	StatusDenied             ClaimStatus = "DENIED"
	StatusAppealed           ClaimStatus = "APPEALED"
	StatusPaid               ClaimStatus = "PAID"
	StatusCancelled          ClaimStatus = "CANCELLED"
	StatusExpired            ClaimStatus = "EXPIRED"
)

// transitions lists the allowed next states per state. PAID, CANCELLED and
// EXPIRED are terminal.
var transitions = map[ClaimStatus][]ClaimStatus{
	StatusDraft:              {StatusSubmitted},
	StatusSubmitted:          {StatusInReview, StatusCancelled},
	StatusInReview:           {StatusApproved, StatusPartiallyApproved, StatusDenied, StatusPendingInformation},
	StatusPendingInformation: {StatusInReview, StatusExpired},
	StatusDenied:             {StatusAppealed},
	StatusApproved:           {StatusPaid},
	StatusPartiallyApproved:  {StatusPaid},
	StatusAppealed:           {StatusInReview},
	StatusPaid:               {},
	StatusCancelled:          {},
	StatusExpired:            {},
}

func ParseStatus(s string) (ClaimStatus, error) {
	st := ClaimStatus(strings.ToUpper(s))
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown claim status: %s", s)
	}
	return st, nil
}

// Terminal reports whether no further transition is possible.
func (s ClaimStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the move to next is allowed.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SupportingDocument is a reference to evidence attached to a claim.
type SupportingDocument struct {
	ID       uuid.UUID `json:"id"`
	ClaimID  uuid.UUID `json:"claim_id"`
	Document string    `json:"document"`
	AddedAt  time.Time `json:"added_at"`
}

// Claim is a request for reimbursement against a held policy for a bill's
// claimable amount. It moves through the submission/review lifecycle and
// carries the approved amount and denial reason once resolved.
type Claim struct {
	ID             uuid.UUID       `json:"id"`
	ClaimNumber    string          `json:"claim_number"`
	BillID         uuid.UUID       `json:"bill_id"`
	PolicyID       uuid.UUID       `json:"policy_id"`
	PatientID      uuid.UUID       `json:"patient_id"`
	ClaimAmount    decimal.Decimal `json:"claim_amount"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	Status         ClaimStatus     `json:"status"`
	DenialReason   *string         `json:"denial_reason,omitempty"`
	SubmittedAt    *time.Time      `json:"submitted_at,omitempty"`
	ResolvedAt     *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	Documents []SupportingDocument `json:"documents,omitempty"`
}

// transitionTo applies the status change after checking it against the
// lifecycle table.
func (c *Claim) transitionTo(next ClaimStatus) error {
	if !c.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move claim %s from %s to %s", ErrStateConflict, c.ClaimNumber, c.Status, next)
	}
	c.Status = next
	return nil
}

// Submit moves a draft claim into SUBMITTED and stamps the submission time.
func (c *Claim) Submit(now time.Time) error {
	if err := c.transitionTo(StatusSubmitted); err != nil {
		return err
	}
	c.SubmittedAt = &now
	return nil
}

// UpdateStatus applies an explicit lifecycle move requested by a reviewer.
// Resolution states stamp the resolution time; DENIED requires a reason.
func (c *Claim) UpdateStatus(next ClaimStatus, reason string, now time.Time) error {
	if next == StatusDenied && reason == "" {
		return fmt.Errorf("a denial reason is required")
	}
	if err := c.transitionTo(next); err != nil {
		return err
	}
	switch next {
	case StatusApproved:
		c.ApprovedAmount = c.ClaimAmount
		c.ResolvedAt = &now
	case StatusDenied:
		c.DenialReason = &reason
		c.ResolvedAt = &now
	case StatusPaid, StatusCancelled, StatusExpired:
		c.ResolvedAt = &now
	case StatusAppealed:
		c.DenialReason = nil
		c.ResolvedAt = nil
	}
	return nil
}

// ProcessPartialApproval resolves an in-review claim for less than the full
// claim amount. The amount must be positive and strictly below the claim
// amount; a full amount should go through APPROVED instead.
func (c *Claim) ProcessPartialApproval(amount decimal.Decimal, now time.Time) error {
	if c.Status != StatusInReview {
		return fmt.Errorf("%w: claim %s is %s, partial approval requires IN_REVIEW", ErrStateConflict, c.ClaimNumber, c.Status)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("approved amount must be positive")
	}
	if amount.GreaterThanOrEqual(c.ClaimAmount) {
		return fmt.Errorf("partial approval must be below the claim amount %s", c.ClaimAmount)
	}
	if err := c.transitionTo(StatusPartiallyApproved); err != nil {
		return err
	}
	c.ApprovedAmount = amount
	c.ResolvedAt = &now
	return nil
}

// AddSupportingDocument attaches a document reference. Documents can be added
// until the claim reaches a terminal state.
func (c *Claim) AddSupportingDocument(document string, now time.Time) (*SupportingDocument, error) {
	if document == "" {
		return nil, fmt.Errorf("document reference is required")
	}
	if c.Status.Terminal() {
		return nil, fmt.Errorf("%w: claim %s is %s", ErrStateConflict, c.ClaimNumber, c.Status)
	}
	doc := SupportingDocument{
		ID:       uuid.New(),
		ClaimID:  c.ID,
		Document: document,
		AddedAt:  now,
	}
	c.Documents = append(c.Documents, doc)
	return &doc, nil
}

// MostRecentDocument returns the last attached document, or nil when none
// exist.
func (c *Claim) MostRecentDocument() *SupportingDocument {
	if len(c.Documents) == 0 {
		return nil
	}
	return &c.Documents[len(c.Documents)-1]
}

// Resolved reports whether review has produced an outcome.
func (c *Claim) Resolved() bool {
	switch c.Status {
	case StatusApproved, StatusPartiallyApproved, StatusDenied, StatusPaid, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Payable reports whether the claim can be settled.
func (c *Claim) Payable() bool {
	return c.Status == StatusApproved || c.Status == StatusPartiallyApproved
}
