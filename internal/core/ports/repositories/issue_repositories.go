package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
)

// IssueReader defines read operations for issue data
type IssueReader interface {
	// FindIssueByID retrieves a specific issue by its unique identifier.
	FindIssueByID(ctx context.Context, issueID string) (*domain.Issue, error)

	// ListIssues retrieves a page of issues matching the filter ordered by creation time, newest first,
	// joined with the owner's display fields. It returns a token for the next page, nil on the last one.
	ListIssues(ctx context.Context, filter domain.IssueListFilter) ([]domain.IssueWithOwner, *string, error)
}

// IssueWriter defines write operations for issue data
type IssueWriter interface {
	// SaveIssue persists a new issue.
	SaveIssue(ctx context.Context, issue domain.Issue) error
}

// IssueStatusUpdater holds the conditional updates that move an issue along its lifecycle.
// Each update only applies when the stored status still equals from; otherwise it fails with
// apperrors.ErrPreconditionFailed and leaves the row untouched.
type IssueStatusUpdater interface {
	// TransitionStatus sets the status to to and refreshes updated_at.
	TransitionStatus(ctx context.Context, issueID string, from, to domain.IssueStatus, now time.Time) error

	// ReplaceEvidence sets the status to to together with the new evidence paths and remaining amount.
	// It returns the paths held by the row it replaced, read under the same row lock.
	ReplaceEvidence(ctx context.Context, issueID string, from, to domain.IssueStatus, update domain.EvidenceUpdate, now time.Time) ([]string, error)
}

// IssueRepositoryFacade combines all issue-related repository interfaces
type IssueRepositoryFacade interface {
	IssueReader
	IssueWriter
	IssueStatusUpdater
}
