package mapping

import (
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/SscSPs/issue_tracker/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelIssue converts a domain Issue to a model Issue
func ToModelIssue(d domain.Issue) models.Issue {
	m := models.Issue{
		IssueID:      d.IssueID,
		Title:        d.Title,
		Reason:       d.Reason,
		Amount:       d.Amount,
		Status:       string(d.Status),
		ReceiptPaths: d.ReceiptEvidence,
		OwnerID:      d.OwnerID,
		Timestamps:   ToModelTimestamps(d.Timestamps),
	}
	if m.ReceiptPaths == nil {
		m.ReceiptPaths = []string{}
	}
	if d.RemainingAmount != nil {
		m.RemainingAmount = decimal.NewNullDecimal(*d.RemainingAmount)
	}
	return m
}

// ToDomainIssue converts a model Issue to a domain Issue
func ToDomainIssue(m models.Issue) domain.Issue {
	d := domain.Issue{
		IssueID:         m.IssueID,
		Title:           m.Title,
		Reason:          m.Reason,
		Amount:          m.Amount,
		Status:          domain.IssueStatus(m.Status),
		ReceiptEvidence: m.ReceiptPaths,
		OwnerID:         m.OwnerID,
		Timestamps:      ToDomainTimestamps(m.Timestamps),
	}
	if d.ReceiptEvidence == nil {
		d.ReceiptEvidence = []string{}
	}
	if m.RemainingAmount.Valid {
		remaining := m.RemainingAmount.Decimal
		d.RemainingAmount = &remaining
	}
	return d
}

// ToDomainIssueWithOwner converts a joined model row to a domain IssueWithOwner
func ToDomainIssueWithOwner(m models.IssueWithOwner) domain.IssueWithOwner {
	return domain.IssueWithOwner{
		Issue: ToDomainIssue(m.Issue),
		Owner: domain.IssueOwner{
			Name:  m.OwnerName,
			Email: m.OwnerEmail,
		},
	}
}

// ToDomainIssueWithOwnerSlice converts a slice of joined model rows
func ToDomainIssueWithOwnerSlice(ms []models.IssueWithOwner) []domain.IssueWithOwner {
	ds := make([]domain.IssueWithOwner, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainIssueWithOwner(m)
	}
	return ds
}
