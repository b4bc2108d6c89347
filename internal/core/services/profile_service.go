package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portsrepo "github.com/SscSPs/issue_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/google/uuid"
)

type profileService struct {
	BaseService
	profileRepo portsrepo.ProfileRepositoryFacade
}

func NewProfileService(profileRepo portsrepo.ProfileRepositoryFacade) portssvc.ProfileSvcFacade {
	return &profileService{profileRepo: profileRepo}
}

var _ portssvc.ProfileSvcFacade = (*profileService)(nil)

func (s *profileService) GetProfileByID(ctx context.Context, profileID string) (*domain.Profile, error) {
	profile, err := s.profileRepo.FindProfileByID(ctx, profileID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find profile by ID", slog.String("profile_id", profileID))
		}
		return nil, err
	}
	return profile, nil
}

// ResolveActor reads the role from the profile row on every call; roles are never cached.
func (s *profileService) ResolveActor(ctx context.Context, profileID string) (domain.Actor, error) {
	profile, err := s.GetProfileByID(ctx, profileID)
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.ActorFromProfile(profile), nil
}

func (s *profileService) CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (*domain.Profile, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = utils.NormalizeEmail(req.Email)
	if req.Role == "" {
		req.Role = domain.RoleEmployee
	}
	if req.AuthProvider == "" {
		req.AuthProvider = domain.ProviderLocal
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.AuthProvider == domain.ProviderLocal && req.Password == "" {
		return nil, apperrors.NewValidationFailedError("password is required")
	}

	now := time.Now().UTC()
	profile := domain.Profile{
		ProfileID:    uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         req.Role,
		AuthProvider: req.AuthProvider,
		Timestamps: domain.Timestamps{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			s.LogError(ctx, err, "Failed to hash password")
			return nil, apperrors.NewInternalServerError("failed to create profile")
		}
		profile.PasswordHash = hash
	}
	if req.ProviderUserID != "" {
		providerUserID := req.ProviderUserID
		profile.ProviderUserID = &providerUserID
	}

	if err := s.profileRepo.SaveProfile(ctx, profile); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save profile", slog.String("email", profile.Email))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Profile created",
		slog.String("profile_id", profile.ProfileID),
		slog.String("role", string(profile.Role)),
		slog.String("auth_provider", string(profile.AuthProvider)))
	return &profile, nil
}

// SetRole changes the role of the profile registered under email.
func (s *profileService) SetRole(ctx context.Context, email string, role domain.Role) (*domain.Profile, error) {
	if !role.IsValid() {
		return nil, apperrors.NewValidationFailedError("role must be bendahara or karyawan")
	}
	profile, err := s.profileRepo.FindProfileByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.profileRepo.UpdateRole(ctx, profile.ProfileID, role, now); err != nil {
		s.LogError(ctx, err, "Failed to update role", slog.String("profile_id", profile.ProfileID))
		return nil, err
	}
	s.LogInfo(ctx, "Profile role changed",
		slog.String("profile_id", profile.ProfileID),
		slog.String("from", string(profile.Role)),
		slog.String("to", string(role)))
	profile.Role = role
	profile.UpdatedAt = now
	return profile, nil
}

func (s *profileService) UpdateRefreshToken(ctx context.Context, profileID string, refreshTokenHash string, expiry time.Time) error {
	if err := s.profileRepo.UpdateRefreshToken(ctx, profileID, refreshTokenHash, &expiry, time.Now().UTC()); err != nil {
		s.LogError(ctx, err, "Failed to store refresh token", slog.String("profile_id", profileID))
		return err
	}
	return nil
}

func (s *profileService) ClearRefreshToken(ctx context.Context, profileID string) error {
	if err := s.profileRepo.UpdateRefreshToken(ctx, profileID, "", nil, time.Now().UTC()); err != nil {
		s.LogError(ctx, err, "Failed to clear refresh token", slog.String("profile_id", profileID))
		return err
	}
	return nil
}

// AuthenticateProfile checks local credentials. Unknown emails and wrong passwords fail identically.
func (s *profileService) AuthenticateProfile(ctx context.Context, email, password string) (*domain.Profile, error) {
	invalid := apperrors.NewUnauthorizedError("invalid email or password")

	profile, err := s.profileRepo.FindProfileByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalid
		}
		s.LogError(ctx, err, "Failed to look up profile for login")
		return nil, err
	}
	if profile.PasswordHash == "" || !utils.CheckPasswordHash(password, profile.PasswordHash) {
		s.LogDebug(ctx, "Login rejected", slog.String("profile_id", profile.ProfileID))
		return nil, invalid
	}
	return profile, nil
}

// CreateOAuthProfile returns the profile linked to the Google subject. A verified email that is
// already registered signs into that profile; otherwise a new employee profile is created.
func (s *profileService) CreateOAuthProfile(ctx context.Context, info domain.GoogleUserInfo) (*domain.Profile, error) {
	if info.Subject == "" || info.Email == "" {
		return nil, apperrors.NewUnauthorizedError("google token is missing the subject or email")
	}
	if !info.EmailVerified {
		return nil, apperrors.NewUnauthorizedError("google account email is not verified")
	}

	profile, err := s.profileRepo.FindProfileByProvider(ctx, domain.ProviderGoogle, info.Subject)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up profile by provider")
		return nil, err
	}

	profile, err = s.profileRepo.FindProfileByEmail(ctx, utils.NormalizeEmail(info.Email))
	if err == nil {
		s.LogInfo(ctx, "Google sign-in matched existing profile by email",
			slog.String("profile_id", profile.ProfileID))
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogError(ctx, err, "Failed to look up profile by email")
		return nil, err
	}

	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = info.Email
	}
	return s.CreateProfile(ctx, dto.CreateProfileRequest{
		Name:           name,
		Email:          info.Email,
		Role:           domain.RoleEmployee,
		AuthProvider:   domain.ProviderGoogle,
		ProviderUserID: info.Subject,
	})
}
