package pgsql

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/issue_tracker/internal/core/ports/repositories"
	"github.com/SscSPs/issue_tracker/internal/models"
	"github.com/SscSPs/issue_tracker/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxProfileRepository struct {
	BaseRepository
}

func newPgxProfileRepository(pool *pgxpool.Pool) portsrepo.ProfileRepositoryFacade {
	return &PgxProfileRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ProfileRepositoryFacade = (*PgxProfileRepository)(nil)

var FULL_PROFILE_SELECT_QUERY = `
SELECT
	id, name, email, role, password_hash, auth_provider, provider_user_id,
	refresh_token_hash, refresh_token_expiry_time, created_at, updated_at
FROM profiles
`

// findProfile runs the select query with the given filter and expects at most one row.
func (r *PgxProfileRepository) findProfile(ctx context.Context, filterQuery string, args ...any) (*domain.Profile, error) {
	rows, err := r.Pool.Query(ctx, FULL_PROFILE_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		if pgErrorCode(err) == pgInvalidTextRepr {
			return nil, apperrors.NewNotFoundError("profile not found")
		}
		return nil, apperrors.NewDependencyError("failed to query profile", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Profile])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == pgInvalidTextRepr {
			return nil, apperrors.NewNotFoundError("profile not found")
		}
		return nil, apperrors.NewDependencyError("failed to read profile", err)
	}
	profile := mapping.ToDomainProfile(m)
	return &profile, nil
}

func (r *PgxProfileRepository) FindProfileByID(ctx context.Context, profileID string) (*domain.Profile, error) {
	return r.findProfile(ctx, `WHERE id = $1`, profileID)
}

func (r *PgxProfileRepository) FindProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findProfile(ctx, `WHERE lower(email) = $1`, strings.ToLower(email))
}

func (r *PgxProfileRepository) FindProfileByProvider(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.Profile, error) {
	return r.findProfile(ctx, `WHERE auth_provider = $1 AND provider_user_id = $2`, string(provider), providerUserID)
}

func (r *PgxProfileRepository) SaveProfile(ctx context.Context, profile domain.Profile) error {
	m := mapping.ToModelProfile(profile)
	query := `
		INSERT INTO profiles (
			id, name, email, role, password_hash, auth_provider, provider_user_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ProfileID,
		m.Name,
		strings.ToLower(m.Email),
		m.Role,
		m.PasswordHash,
		m.AuthProvider,
		m.ProviderUserID,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return apperrors.NewConflictError("email " + profile.Email + " is already registered")
		}
		return apperrors.NewDependencyError("failed to save profile", err)
	}
	return nil
}

func (r *PgxProfileRepository) UpdateRole(ctx context.Context, profileID string, role domain.Role, now time.Time) error {
	query := `
		UPDATE profiles
		SET role = $1, updated_at = $2
		WHERE id = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(role), now, profileID)
	if err != nil {
		if pgErrorCode(err) == pgInvalidTextRepr {
			return apperrors.NewNotFoundError("profile not found")
		}
		return apperrors.NewDependencyError("failed to update profile role", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("profile not found")
	}
	return nil
}

func (r *PgxProfileRepository) UpdateRefreshToken(ctx context.Context, profileID string, tokenHash string, expiry *time.Time, now time.Time) error {
	query := `
		UPDATE profiles
		SET refresh_token_hash = NULLIF($1, ''), refresh_token_expiry_time = $2, updated_at = $3
		WHERE id = $4;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tokenHash, expiry, now, profileID)
	if err != nil {
		return apperrors.NewDependencyError("failed to update refresh token", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("profile not found")
	}
	return nil
}
