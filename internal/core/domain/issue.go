package domain

import (
	"fmt"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/shopspring/decimal"
)

// IssueStatus is the lifecycle state of a reimbursement issue.
type IssueStatus string

const (
	StatusPending        IssueStatus = "pending"
	StatusAccepted       IssueStatus = "accepted"
	StatusRejected       IssueStatus = "rejected"
	StatusReviewEvidence IssueStatus = "review_evidence"
	StatusNeedRevision   IssueStatus = "need_revision"
	StatusCompleted      IssueStatus = "completed"
)

// AllStatuses lists every status in display order. Used for the "all" list filter.
var AllStatuses = []IssueStatus{
	StatusPending,
	StatusAccepted,
	StatusRejected,
	StatusReviewEvidence,
	StatusNeedRevision,
	StatusCompleted,
}

var terminalStatuses = map[IssueStatus]bool{
	StatusRejected:  true,
	StatusCompleted: true,
}

// IsTerminal returns true if no transition leaves the status.
func (s IssueStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if s is a known status.
func (s IssueStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s IssueStatus) String() string {
	return string(s)
}

// ParseStatusFilter turns the ?status= query value into the statuses to list.
// An empty value and "all" both select every status.
func ParseStatusFilter(raw string) ([]IssueStatus, error) {
	if raw == "" || raw == "all" {
		return append([]IssueStatus(nil), AllStatuses...), nil
	}
	status := IssueStatus(raw)
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, raw)
	}
	return []IssueStatus{status}, nil
}

// Issue is a single reimbursement request.
type Issue struct {
	IssueID string          `json:"id"`
	Title   string          `json:"title"`
	Reason  string          `json:"reason"`
	Amount  decimal.Decimal `json:"amount"`
	Status  IssueStatus     `json:"status"`
	// ReceiptEvidence holds blob-store object paths of the latest evidence submission.
	ReceiptEvidence []string         `json:"receiptEvidence"`
	RemainingAmount *decimal.Decimal `json:"remainingAmount,omitempty"`
	OwnerID         string           `json:"ownerId"`
	Timestamps
}

// IsOwnedBy reports whether the actor created the issue.
func (i *Issue) IsOwnedBy(actor Actor) bool {
	return i.OwnerID != "" && i.OwnerID == actor.ID
}

// HasEvidence reports whether at least one receipt file is referenced.
func (i *Issue) HasEvidence() bool {
	return len(i.ReceiptEvidence) > 0
}

// IssueOwner carries the owner fields shown next to an issue in lists.
type IssueOwner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IssueWithOwner is an issue joined with minimal owner display information.
type IssueWithOwner struct {
	Issue
	Owner IssueOwner `json:"owner"`
}

// IssueListFilter selects issues for ListIssues.
type IssueListFilter struct {
	Statuses []IssueStatus
	OwnerID  *string // nil lists every owner
	Limit    int
	// NextToken continues a previous listing; nil starts from the newest issue.
	NextToken *string
}

// EvidenceUpdate is the replacement evidence set written by an upload.
type EvidenceUpdate struct {
	Paths           []string
	RemainingAmount decimal.Decimal
}

// ValidateRemainingAmount enforces 0 <= remaining <= amount.
func ValidateRemainingAmount(remaining, amount decimal.Decimal) error {
	if remaining.IsNegative() {
		return fmt.Errorf("%w: remaining amount must not be negative", apperrors.ErrValidation)
	}
	if remaining.GreaterThan(amount) {
		return fmt.Errorf("%w: remaining amount %s exceeds requested amount %s", apperrors.ErrValidation, remaining.String(), amount.String())
	}
	return nil
}

// Amounts are stored as NUMERIC(15,2).
const (
	amountScale            = 2
	maxAmountIntegerDigits = 13
)

var amountUpperBound = decimal.New(1, maxAmountIntegerDigits)

// ValidateAmountPrecision rejects values the amount columns would round or overflow.
// Trailing zeros are fine: 10.500 is stored as 10.50.
func ValidateAmountPrecision(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(amountScale)) {
		return fmt.Errorf("%w: %s must have at most %d decimal places", apperrors.ErrValidation, field, amountScale)
	}
	if d.Abs().GreaterThanOrEqual(amountUpperBound) {
		return fmt.Errorf("%w: %s must have at most %d integer digits", apperrors.ErrValidation, field, maxAmountIntegerDigits)
	}
	return nil
}
