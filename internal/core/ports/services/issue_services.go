package services

import (
	"context"
	"io"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/shopspring/decimal"
)

// EvidenceFile is one uploaded receipt. Open may be called more than once.
type EvidenceFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// EvidenceUploadResult reports the outcome of a successful evidence upload.
type EvidenceUploadResult struct {
	Transition domain.Transition
	Paths      []string
}

// IssueReaderSvc defines read operations for issue data
type IssueReaderSvc interface {
	// GetIssue retrieves an issue visible to the actor: any issue for a treasurer, own issues otherwise.
	GetIssue(ctx context.Context, issueID string, actor domain.Actor) (*domain.Issue, error)

	// ListIssues retrieves a page of issues visible to the actor and the token for the next page.
	ListIssues(ctx context.Context, actor domain.Actor, params dto.ListIssuesParams) ([]domain.IssueWithOwner, *string, error)

	// EvidenceURL resolves a stored evidence path to the URL clients fetch it from.
	EvidenceURL(path string) string

	// AllowedActions lists the lifecycle actions the actor could fire on the issue now.
	AllowedActions(issue *domain.Issue, actor domain.Actor) []domain.Action
}

// IssueWriterSvc defines write operations for issue data
type IssueWriterSvc interface {
	// CreateIssue submits a new pending issue owned by the actor.
	CreateIssue(ctx context.Context, actor domain.Actor, req dto.CreateIssueRequest) (*domain.Issue, error)
}

// IssueLifecycleSvc moves issues along their lifecycle. Every method re-reads the issue,
// decides with the current actor and persists with a conditional update.
type IssueLifecycleSvc interface {
	Accept(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error)
	Reject(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error)
	Validate(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error)
	RequestRevision(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error)

	// UploadEvidence replaces the issue's receipts and remaining amount and moves it to review.
	UploadEvidence(ctx context.Context, issueID string, actor domain.Actor, files []EvidenceFile, remainingAmount decimal.Decimal) (*EvidenceUploadResult, error)
}

// IssueExportSvc renders issue lists as spreadsheets.
type IssueExportSvc interface {
	// ExportIssues writes every issue matching the status filter as an XLSX workbook. Treasurer only.
	ExportIssues(ctx context.Context, actor domain.Actor, status string, w io.Writer) error
}

// IssueSvcFacade combines all issue-related service interfaces
type IssueSvcFacade interface {
	IssueReaderSvc
	IssueWriterSvc
	IssueLifecycleSvc
	IssueExportSvc
}
