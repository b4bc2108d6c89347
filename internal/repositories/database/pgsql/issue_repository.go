package pgsql

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/issue_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/issue_tracker/internal/models"
	"github.com/SscSPs/issue_tracker/internal/utils/mapping"
	"github.com/SscSPs/issue_tracker/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultIssuePageSize = 20

type PgxIssueRepository struct {
	BaseRepository
}

// newPgxIssueRepository creates a new repository for issue data.
func newPgxIssueRepository(pool *pgxpool.Pool) portsrepo.IssueRepositoryFacade {
	return &PgxIssueRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxIssueRepository implements portsrepo.IssueRepositoryFacade
var _ portsrepo.IssueRepositoryFacade = (*PgxIssueRepository)(nil)

const issueColumns = `
	i.id, i.title, i.reason, i.amount, i.status, i.receipt_paths, i.remaining_amount,
	i.owner_id, i.created_at, i.updated_at`

var FULL_ISSUE_SELECT_QUERY = `SELECT` + issueColumns + `
FROM issues i
`

var FULL_ISSUE_WITH_OWNER_SELECT_QUERY = `SELECT` + issueColumns + `,
	p.name AS owner_name, p.email AS owner_email
FROM issues i
JOIN profiles p ON p.id = i.owner_id
`

func (r *PgxIssueRepository) SaveIssue(ctx context.Context, issue domain.Issue) error {
	m := mapping.ToModelIssue(issue)
	query := `
		INSERT INTO issues (
			id, title, reason, amount, status, receipt_paths, remaining_amount,
			owner_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.IssueID,
		m.Title,
		m.Reason,
		m.Amount,
		m.Status,
		m.ReceiptPaths,
		m.RemainingAmount,
		m.OwnerID,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return apperrors.NewConflictError("issue " + issue.IssueID + " already exists")
		case pgForeignKeyViolation:
			return apperrors.NewValidationFailedError("owner profile does not exist")
		}
		return apperrors.NewDependencyError("failed to save issue", err)
	}
	return nil
}

func (r *PgxIssueRepository) FindIssueByID(ctx context.Context, issueID string) (*domain.Issue, error) {
	query := FULL_ISSUE_SELECT_QUERY + `WHERE i.id = $1`
	rows, err := r.Pool.Query(ctx, query, issueID)
	if err != nil {
		if pgErrorCode(err) == pgInvalidTextRepr {
			return nil, apperrors.NewNotFoundError("issue not found")
		}
		return nil, apperrors.NewDependencyError("failed to query issue", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Issue])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == pgInvalidTextRepr {
			return nil, apperrors.NewNotFoundError("issue not found")
		}
		return nil, apperrors.NewDependencyError("failed to read issue", err)
	}
	issue := mapping.ToDomainIssue(m)
	return &issue, nil
}

// ListIssues retrieves a page of issues using token-based pagination.
// Rows are ordered by created_at DESC with id DESC as a tie-breaker so the order is total.
func (r *PgxIssueRepository) ListIssues(ctx context.Context, filter domain.IssueListFilter) ([]domain.IssueWithOwner, *string, error) {
	query, args, limit, err := buildIssueListQuery(filter)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewDependencyError("failed to query issues", err)
	}
	modelIssues, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.IssueWithOwner])
	if err != nil {
		return nil, nil, apperrors.NewDependencyError("failed to collect issue rows", err)
	}

	// Determine the next token
	var nextTokenVal *string
	results := modelIssues
	if len(modelIssues) > limit {
		last := modelIssues[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.IssueID)
		nextTokenVal = &token
		results = modelIssues[:limit]
	}

	return mapping.ToDomainIssueWithOwnerSlice(results), nextTokenVal, nil
}

// buildIssueListQuery renders the keyset query for one page. The returned limit is the page
// size; the query fetches one extra row so the caller can tell whether another page exists.
func buildIssueListQuery(filter domain.IssueListFilter) (string, []any, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultIssuePageSize
	}

	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}
	args := []any{statuses}
	whereClause := `WHERE i.status = ANY($1)`

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		whereClause += ` AND i.owner_id = $` + strconv.Itoa(len(args))
	}

	if filter.NextToken != nil && *filter.NextToken != "" {
		lastCreatedAt, lastID, decodeErr := pagination.DecodeToken(*filter.NextToken)
		if decodeErr != nil {
			return "", nil, 0, apperrors.NewAppError(400, "invalid nextToken", errors.Join(apperrors.ErrValidation, decodeErr))
		}
		args = append(args, lastCreatedAt, lastID)
		whereClause += ` AND (i.created_at, i.id) < ($` + strconv.Itoa(len(args)-1) + `, $` + strconv.Itoa(len(args)) + `)`
	}

	args = append(args, limit+1)
	query := FULL_ISSUE_WITH_OWNER_SELECT_QUERY + whereClause +
		` ORDER BY i.created_at DESC, i.id DESC LIMIT $` + strconv.Itoa(len(args))
	return query, args, limit, nil
}

func (r *PgxIssueRepository) TransitionStatus(ctx context.Context, issueID string, from, to domain.IssueStatus, now time.Time) error {
	query := `
		UPDATE issues
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(to), now, issueID, string(from))
	if err != nil {
		return apperrors.NewDependencyError("failed to update issue status", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewPreconditionFailedError("issue is no longer " + string(from))
	}
	return nil
}

func (r *PgxIssueRepository) ReplaceEvidence(ctx context.Context, issueID string, from, to domain.IssueStatus, update domain.EvidenceUpdate, now time.Time) ([]string, error) {
	// prev locks the row so the returned paths are exactly the ones overwritten.
	query := `
		WITH prev AS (
			SELECT id, receipt_paths FROM issues
			WHERE id = $5 AND status = $6
			FOR UPDATE
		)
		UPDATE issues i
		SET status = $1, receipt_paths = $2, remaining_amount = $3, updated_at = $4
		FROM prev
		WHERE i.id = prev.id AND i.status = $6
		RETURNING prev.receipt_paths;
	`
	var previous []string
	err := r.Pool.QueryRow(ctx, query,
		string(to),
		update.Paths,
		update.RemainingAmount,
		now,
		issueID,
		string(from),
	).Scan(&previous)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewPreconditionFailedError("issue is no longer " + string(from))
		}
		return nil, apperrors.NewDependencyError("failed to update issue evidence", err)
	}
	return previous, nil
}
