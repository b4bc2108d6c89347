package services

import (
	"context"
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/SscSPs/issue_tracker/internal/dto"
)

// ProfileReaderSvc defines read operations for profile data
type ProfileReaderSvc interface {
	// GetProfileByID retrieves a profile by ID.
	GetProfileByID(ctx context.Context, profileID string) (*domain.Profile, error)

	// ResolveActor loads the current role for an authenticated profile ID.
	ResolveActor(ctx context.Context, profileID string) (domain.Actor, error)
}

// ProfileWriterSvc defines write operations for profile data
type ProfileWriterSvc interface {
	// CreateProfile creates a new profile.
	CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (*domain.Profile, error)

	// SetRole changes the role of the profile registered under email.
	SetRole(ctx context.Context, email string, role domain.Role) (*domain.Profile, error)

	// UpdateRefreshToken stores the hash of a newly issued refresh token.
	UpdateRefreshToken(ctx context.Context, profileID string, refreshTokenHash string, expiry time.Time) error

	// ClearRefreshToken signs the profile out.
	ClearRefreshToken(ctx context.Context, profileID string) error
}

// ProfileAuthSvc defines operations for profile authentication
type ProfileAuthSvc interface {
	// AuthenticateProfile checks local email and password credentials.
	AuthenticateProfile(ctx context.Context, email, password string) (*domain.Profile, error)

	// CreateOAuthProfile finds the profile linked to a Google identity, linking or creating one if needed.
	CreateOAuthProfile(ctx context.Context, info domain.GoogleUserInfo) (*domain.Profile, error)
}

// ProfileSvcFacade combines all profile-related service interfaces
type ProfileSvcFacade interface {
	ProfileReaderSvc
	ProfileWriterSvc
	ProfileAuthSvc
}
