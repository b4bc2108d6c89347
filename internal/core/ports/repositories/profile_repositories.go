package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
)

// ProfileReader defines read operations for profile data
type ProfileReader interface {
	// FindProfileByID retrieves a specific profile by its ID.
	FindProfileByID(ctx context.Context, profileID string) (*domain.Profile, error)

	// FindProfileByEmail retrieves a profile by its unique email address.
	FindProfileByEmail(ctx context.Context, email string) (*domain.Profile, error)

	// FindProfileByProvider retrieves a profile linked to an external identity.
	FindProfileByProvider(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.Profile, error)
}

// ProfileWriter defines write operations for profile data
type ProfileWriter interface {
	// SaveProfile persists a new profile. A taken email fails with apperrors.ErrDuplicate.
	SaveProfile(ctx context.Context, profile domain.Profile) error

	// UpdateRole changes the role of a profile.
	UpdateRole(ctx context.Context, profileID string, role domain.Role, now time.Time) error

	// UpdateRefreshToken stores the hash and expiry of the current refresh token.
	// An empty hash and nil expiry sign the profile out.
	UpdateRefreshToken(ctx context.Context, profileID string, tokenHash string, expiry *time.Time, now time.Time) error
}

// ProfileRepositoryFacade combines all profile-related repository interfaces
type ProfileRepositoryFacade interface {
	ProfileReader
	ProfileWriter
}
