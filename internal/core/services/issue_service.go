package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/issue_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/core/ports/storage"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/google/uuid"
)

const (
	defaultListLimit         = 20
	maxListLimit             = 100
	maxTitleLength           = 100
	maxReasonLength          = 500
	defaultUploadConcurrency = 4
)

// issueService implements the IssueSvcFacade interface
type issueService struct {
	BaseService
	issueRepo         portsrepo.IssueRepositoryFacade
	blobStore         storage.BlobStore
	lifecycle         *domain.Lifecycle
	analytics         *utils.PosthogClientWrapper
	maxUploadBytes    int64
	uploadConcurrency int
	now               func() time.Time
}

// IssueServiceOption is a function that configures an issueService
type IssueServiceOption func(*issueService)

// WithAnalytics sends lifecycle events to PostHog.
func WithAnalytics(client *utils.PosthogClientWrapper) IssueServiceOption {
	return func(s *issueService) {
		s.analytics = client
	}
}

// WithMaxUploadBytes caps the size of a single receipt file. Zero disables the cap.
func WithMaxUploadBytes(n int64) IssueServiceOption {
	return func(s *issueService) {
		s.maxUploadBytes = n
	}
}

// WithUploadConcurrency bounds how many receipt files are written to the blob store at once.
func WithUploadConcurrency(n int) IssueServiceOption {
	return func(s *issueService) {
		if n > 0 {
			s.uploadConcurrency = n
		}
	}
}

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) IssueServiceOption {
	return func(s *issueService) {
		s.now = now
	}
}

// NewIssueService creates a new issue service with the provided dependencies
func NewIssueService(
	issueRepo portsrepo.IssueRepositoryFacade,
	blobStore storage.BlobStore,
	options ...IssueServiceOption,
) portssvc.IssueSvcFacade {
	svc := &issueService{
		issueRepo:         issueRepo,
		blobStore:         blobStore,
		lifecycle:         domain.NewLifecycle(),
		uploadConcurrency: defaultUploadConcurrency,
		now:               time.Now,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

var _ portssvc.IssueSvcFacade = (*issueService)(nil)

// CreateIssue submits a new pending issue owned by the actor.
func (s *issueService) CreateIssue(ctx context.Context, actor domain.Actor, req dto.CreateIssueRequest) (*domain.Issue, error) {
	if actor.Role != domain.RoleEmployee {
		return nil, apperrors.NewForbiddenError("only employees can submit issues")
	}

	title := strings.TrimSpace(req.Title)
	reason := strings.TrimSpace(req.Reason)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, apperrors.NewValidationFailedError("title must be between 1 and 100 characters")
	}
	if reason == "" || utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, apperrors.NewValidationFailedError("reason must be between 1 and 500 characters")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidationFailedError("amount must be greater than zero")
	}
	if err := domain.ValidateAmountPrecision("amount", req.Amount); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	issue := domain.Issue{
		IssueID:         uuid.NewString(),
		Title:           title,
		Reason:          reason,
		Amount:          req.Amount,
		Status:          domain.StatusPending,
		ReceiptEvidence: []string{},
		OwnerID:         actor.ID,
		Timestamps: domain.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if err := s.issueRepo.SaveIssue(ctx, issue); err != nil {
		s.LogError(ctx, err, "Failed to save issue",
			slog.String("issue_id", issue.IssueID),
			slog.String("owner_id", actor.ID))
		return nil, err
	}

	s.LogInfo(ctx, "Issue created",
		slog.String("issue_id", issue.IssueID),
		slog.String("owner_id", actor.ID),
		slog.String("amount", issue.Amount.String()))
	s.analytics.Enqueue(actor.ID, "issue_created", map[string]any{
		"issue_id": issue.IssueID,
		"amount":   issue.Amount.String(),
	})
	return &issue, nil
}

// GetIssue retrieves an issue the actor is allowed to see.
func (s *issueService) GetIssue(ctx context.Context, issueID string, actor domain.Actor) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !actor.IsTreasurer() && !issue.IsOwnedBy(actor) {
		return nil, apperrors.NewForbiddenError("you can only view your own issues")
	}
	return issue, nil
}

// ListIssues retrieves a page of issues. Employees only ever see their own.
func (s *issueService) ListIssues(ctx context.Context, actor domain.Actor, params dto.ListIssuesParams) ([]domain.IssueWithOwner, *string, error) {
	statuses, err := domain.ParseStatusFilter(params.Status)
	if err != nil {
		return nil, nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	filter := domain.IssueListFilter{
		Statuses:  statuses,
		Limit:     limit,
		NextToken: params.NextToken,
	}
	if !actor.IsTreasurer() {
		ownerID := actor.ID
		filter.OwnerID = &ownerID
	}

	issues, next, err := s.issueRepo.ListIssues(ctx, filter)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list issues",
				slog.String("actor_id", actor.ID),
				slog.String("status", params.Status))
		}
		return nil, nil, err
	}
	if issues == nil {
		issues = []domain.IssueWithOwner{}
	}

	s.LogDebug(ctx, "Issues listed successfully",
		slog.Int("count", len(issues)),
		slog.Bool("has_more", next != nil))
	return issues, next, nil
}

// EvidenceURL resolves a stored evidence path to a public URL.
func (s *issueService) EvidenceURL(path string) string {
	return s.blobStore.PublicURL(path)
}

// AllowedActions lists the lifecycle actions the actor could fire on the issue now.
func (s *issueService) AllowedActions(issue *domain.Issue, actor domain.Actor) []domain.Action {
	return s.lifecycle.PermittedActions(issue, actor)
}

func (s *issueService) Accept(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return s.transition(ctx, issueID, actor, domain.ActionAccept)
}

func (s *issueService) Reject(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return s.transition(ctx, issueID, actor, domain.ActionReject)
}

func (s *issueService) Validate(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return s.transition(ctx, issueID, actor, domain.ActionValidate)
}

func (s *issueService) RequestRevision(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return s.transition(ctx, issueID, actor, domain.ActionRequestRevision)
}

// transition runs a status-only action: load, decide, then a conditional update on the
// status that was decided against.
func (s *issueService) transition(ctx context.Context, issueID string, actor domain.Actor, action domain.Action) (*domain.Transition, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	tr, err := s.lifecycle.Decide(issue, actor, action)
	if err != nil {
		s.LogDebug(ctx, "Lifecycle action refused",
			slog.String("issue_id", issueID),
			slog.String("action", action.String()),
			slog.String("status", issue.Status.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.issueRepo.TransitionStatus(ctx, issueID, tr.From, tr.To, s.now().UTC()); err != nil {
		if errors.Is(err, apperrors.ErrPreconditionFailed) {
			s.LogInfo(ctx, "Issue status changed concurrently",
				slog.String("issue_id", issueID),
				slog.String("action", action.String()),
				slog.String("expected_status", tr.From.String()))
		} else {
			s.LogError(ctx, err, "Failed to update issue status",
				slog.String("issue_id", issueID),
				slog.String("action", action.String()))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Issue status updated",
		slog.String("issue_id", issueID),
		slog.String("action", action.String()),
		slog.String("from", tr.From.String()),
		slog.String("to", tr.To.String()),
		slog.String("actor_id", actor.ID))
	s.trackTransition(actor, issueID, tr)
	return &tr, nil
}

func (s *issueService) loadIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issueRepo.FindIssueByID(ctx, issueID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find issue by ID",
				slog.String("issue_id", issueID))
		}
		return nil, err
	}
	return issue, nil
}

var transitionEvents = map[domain.Action]string{
	domain.ActionAccept:          "issue_accepted",
	domain.ActionReject:          "issue_rejected",
	domain.ActionUploadEvidence:  "issue_evidence_uploaded",
	domain.ActionValidate:        "issue_completed",
	domain.ActionRequestRevision: "issue_revision_requested",
}

func (s *issueService) trackTransition(actor domain.Actor, issueID string, tr domain.Transition) {
	s.analytics.Enqueue(actor.ID, transitionEvents[tr.Action], map[string]any{
		"issue_id": issueID,
		"from":     tr.From.String(),
		"to":       tr.To.String(),
		"role":     string(actor.Role),
	})
}
