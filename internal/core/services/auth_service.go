package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const refreshTokenBytes = 32

// tokenService implements the TokenSvcFacade for handling JWT and refresh tokens.
type tokenService struct {
	BaseService
	cfg            *config.Config
	profileService portssvc.ProfileReaderSvc
}

// NewTokenService creates a new instance of tokenService.
func NewTokenService(cfg *config.Config, profileService portssvc.ProfileReaderSvc) portssvc.TokenSvcFacade {
	return &tokenService{
		cfg:            cfg,
		profileService: profileService,
	}
}

// GenerateAccessToken creates a new JWT access token for the given profile.
func (s *tokenService) GenerateAccessToken(ctx context.Context, profile *domain.Profile) (string, time.Time, error) {
	expiryTime := time.Now().Add(s.cfg.JWTExpiryDuration)

	accessToken, err := utils.GenerateJWT(profile.ProfileID, s.cfg.JWTSecret, s.cfg.JWTExpiryDuration, s.cfg.JWTIssuer)
	if err != nil {
		s.LogError(ctx, err, "Failed to generate access token", slog.String("profile_id", profile.ProfileID))
		return "", time.Time{}, err
	}
	return accessToken, expiryTime, nil
}

// GenerateRefreshToken creates a new opaque refresh token. Only its hash is ever stored.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, profile *domain.Profile) (string, time.Time, error) {
	rawRefreshToken, err := utils.GenerateSecureRandomString(refreshTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate secure random string for refresh token: %w", err)
	}

	expiryTime := time.Now().Add(s.cfg.RefreshTokenExpiryDuration)
	return rawRefreshToken, expiryTime, nil
}

// ValidateAndParseRefreshToken compares the presented token with the hash stored on the profile.
func (s *tokenService) ValidateAndParseRefreshToken(ctx context.Context, profileID string, refreshTokenString string) (*domain.Profile, error) {
	invalid := apperrors.NewUnauthorizedError("invalid or expired refresh token")

	profile, err := s.profileService.GetProfileByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to retrieve profile for refresh token validation: %w", err)
	}

	if !profile.HasValidRefreshToken(time.Now()) {
		s.LogDebug(ctx, "No usable refresh token stored", slog.String("profile_id", profileID))
		return nil, invalid
	}
	if !utils.CompareRefreshTokenHash(refreshTokenString, profile.RefreshTokenHash) {
		s.LogInfo(ctx, "Refresh token mismatch", slog.String("profile_id", profileID))
		return nil, invalid
	}

	return profile, nil
}

// googleOAuthHandlerService implements the GoogleOAuthHandlerSvcFacade.
type googleOAuthHandlerService struct {
	cfg          *config.Config
	oauth2Config *oauth2.Config
	validate     func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)
}

// NewGoogleOAuthHandlerService creates a new instance of googleOAuthHandlerService.
func NewGoogleOAuthHandlerService(cfg *config.Config) portssvc.GoogleOAuthHandlerSvcFacade {
	return &googleOAuthHandlerService{
		cfg: cfg,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}
}

// GenerateStateString creates a secure random string to be used as a CSRF token for OAuth flow.
func (s *googleOAuthHandlerService) GenerateStateString(ctx context.Context) (string, error) {
	state, err := utils.GenerateSecureRandomString(16)
	if err != nil {
		return "", fmt.Errorf("failed to generate state string for OAuth: %w", err)
	}
	return state, nil
}

// GetGoogleLoginURL returns the URL to redirect the user to for Google login.
func (s *googleOAuthHandlerService) GetGoogleLoginURL(ctx context.Context, state string) string {
	return s.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCodeForToken exchanges an OAuth authorization code for a token.
func (s *googleOAuthHandlerService) ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}
	return token, nil
}

// ValidateGoogleIDToken validates an ID token received from Google and extracts the identity claims.
func (s *googleOAuthHandlerService) ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*domain.GoogleUserInfo, error) {
	if s.cfg.GoogleClientID == "" {
		return nil, errors.New("google client ID is not configured in the application")
	}

	payload, err := s.validate(ctx, idTokenString, s.cfg.GoogleClientID)
	if err != nil {
		return nil, fmt.Errorf("google ID token validation failed: %w", err)
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)

	return &domain.GoogleUserInfo{
		Subject:       payload.Subject,
		Email:         email,
		Name:          name,
		EmailVerified: emailVerified,
	}, nil
}
