package dto

import (
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/shopspring/decimal"
)

// --- Issue DTOs ---

// CreateIssueRequest defines data for submitting a new reimbursement issue.
type CreateIssueRequest struct {
	Title  string          `json:"title" binding:"required,max=100"`
	Reason string          `json:"reason" binding:"required,max=500"`
	Amount decimal.Decimal `json:"amount" swaggertype:"number"`
}

// ListIssuesParams defines query parameters for listing issues.
type ListIssuesParams struct {
	Status    string  `form:"status"`
	Limit     int     `form:"limit,default=20" binding:"min=0"`
	NextToken *string `form:"nextToken"`
}

// ExportIssuesParams defines query parameters for the spreadsheet export.
type ExportIssuesParams struct {
	Status string `form:"status"`
}

// IssueOwnerResponse is the owner summary shown in issue lists.
type IssueOwnerResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IssueResponse defines data returned for an issue. Evidence is rendered as fetchable URLs.
type IssueResponse struct {
	IssueID         string              `json:"id"`
	Title           string              `json:"title"`
	Reason          string              `json:"reason"`
	Amount          decimal.Decimal     `json:"amount" swaggertype:"number"`
	Status          domain.IssueStatus  `json:"status"`
	ReceiptEvidence []string            `json:"receiptEvidence"`
	RemainingAmount *decimal.Decimal    `json:"remainingAmount" swaggertype:"number"`
	OwnerID         string              `json:"ownerId"`
	Owner           *IssueOwnerResponse `json:"owner,omitempty"`
	AllowedActions  []domain.Action     `json:"allowedActions"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// ListIssuesResponse wraps a page of issues.
type ListIssuesResponse struct {
	Issues    []IssueResponse `json:"issues"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// TransitionResponse is returned by the accept, reject, need_revision and complete endpoints.
type TransitionResponse struct {
	Message string             `json:"message"`
	IssueID string             `json:"issueId"`
	Status  domain.IssueStatus `json:"status"`
}

// UploadReceiptResponse is returned after a successful evidence upload.
type UploadReceiptResponse struct {
	Message string             `json:"message"`
	Count   int                `json:"count"`
	IssueID string             `json:"issueId"`
	Status  domain.IssueStatus `json:"status"`
}

// ToIssueResponse converts domain.Issue to DTO. urlFor maps a stored evidence path to its public URL.
func ToIssueResponse(i *domain.Issue, urlFor func(string) string, allowed []domain.Action) IssueResponse {
	urls := make([]string, len(i.ReceiptEvidence))
	for idx, p := range i.ReceiptEvidence {
		urls[idx] = urlFor(p)
	}
	if allowed == nil {
		allowed = []domain.Action{}
	}
	return IssueResponse{
		IssueID:         i.IssueID,
		Title:           i.Title,
		Reason:          i.Reason,
		Amount:          i.Amount,
		Status:          i.Status,
		ReceiptEvidence: urls,
		RemainingAmount: i.RemainingAmount,
		OwnerID:         i.OwnerID,
		AllowedActions:  allowed,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

// ToIssueWithOwnerResponse converts a listed issue including its owner summary.
func ToIssueWithOwnerResponse(i *domain.IssueWithOwner, urlFor func(string) string, allowed []domain.Action) IssueResponse {
	resp := ToIssueResponse(&i.Issue, urlFor, allowed)
	resp.Owner = &IssueOwnerResponse{Name: i.Owner.Name, Email: i.Owner.Email}
	return resp
}
