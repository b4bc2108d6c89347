package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/core/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"google.golang.org/api/idtoken"
)

// MockProfileRepository is a mock type for the ProfileRepositoryFacade interface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindProfileByID(ctx context.Context, profileID string) (*domain.Profile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindProfileByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) FindProfileByProvider(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.Profile, error) {
	args := m.Called(ctx, provider, providerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileRepository) SaveProfile(ctx context.Context, profile domain.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileRepository) UpdateRole(ctx context.Context, profileID string, role domain.Role, now time.Time) error {
	args := m.Called(ctx, profileID, role, now)
	return args.Error(0)
}

func (m *MockProfileRepository) UpdateRefreshToken(ctx context.Context, profileID string, tokenHash string, expiry *time.Time, now time.Time) error {
	args := m.Called(ctx, profileID, tokenHash, expiry, now)
	return args.Error(0)
}

// --- Test Suite Setup ---

type ProfileServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	mockRepo *MockProfileRepository
	service  portssvc.ProfileSvcFacade
}

func (suite *ProfileServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.mockRepo = new(MockProfileRepository)
	suite.service = services.NewProfileService(suite.mockRepo)
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_DefaultsToLocalEmployee() {
	suite.mockRepo.On("SaveProfile", suite.ctx, mock.AnythingOfType("domain.Profile")).Return(nil).Once()

	profile, err := suite.service.CreateProfile(suite.ctx, dto.CreateProfileRequest{
		Name:     " Budi ",
		Email:    "Budi@Example.com",
		Password: "correct-horse",
	})

	suite.Require().NoError(err)
	suite.NotEmpty(profile.ProfileID)
	suite.Equal("Budi", profile.Name)
	suite.Equal("budi@example.com", profile.Email)
	suite.Equal(domain.RoleEmployee, profile.Role)
	suite.Equal(domain.ProviderLocal, profile.AuthProvider)
	suite.True(utils.CheckPasswordHash("correct-horse", profile.PasswordHash))
	suite.Nil(profile.ProviderUserID)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_Validation() {
	cases := map[string]dto.CreateProfileRequest{
		"bad email":        {Name: "Ana", Email: "ana-at-example", Password: "long-enough"},
		"missing password": {Name: "Ana", Email: "ana@example.com"},
		"short password":   {Name: "Ana", Email: "ana@example.com", Password: "short"},
		"unknown role":     {Name: "Ana", Email: "ana@example.com", Password: "long-enough", Role: "admin"},
		"google no sub":    {Name: "Ana", Email: "ana@example.com", AuthProvider: domain.ProviderGoogle},
	}
	for name, req := range cases {
		suite.Run(name, func() {
			_, err := suite.service.CreateProfile(suite.ctx, req)
			suite.ErrorIs(err, apperrors.ErrValidation)
		})
	}
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveProfile", mock.Anything, mock.Anything)
}

func (suite *ProfileServiceTestSuite) TestCreateProfile_Duplicate() {
	suite.mockRepo.On("SaveProfile", suite.ctx, mock.AnythingOfType("domain.Profile")).
		Return(apperrors.NewConflictError("email ana@example.com is already registered")).Once()

	_, err := suite.service.CreateProfile(suite.ctx, dto.CreateProfileRequest{Name: "Ana", Email: "ana@example.com", Password: "long-enough"})

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *ProfileServiceTestSuite) TestResolveActor_UsesStoredRole() {
	suite.mockRepo.On("FindProfileByID", suite.ctx, "p-1").
		Return(&domain.Profile{ProfileID: "p-1", Role: domain.RoleTreasurer}, nil).Once()

	actor, err := suite.service.ResolveActor(suite.ctx, "p-1")

	suite.Require().NoError(err)
	suite.Equal(domain.Actor{ID: "p-1", Role: domain.RoleTreasurer}, actor)
}

func (suite *ProfileServiceTestSuite) TestSetRole() {
	suite.mockRepo.On("FindProfileByEmail", suite.ctx, "ana@example.com").
		Return(&domain.Profile{ProfileID: "p-1", Role: domain.RoleEmployee}, nil).Once()
	suite.mockRepo.On("UpdateRole", suite.ctx, "p-1", domain.RoleTreasurer, mock.AnythingOfType("time.Time")).Return(nil).Once()

	profile, err := suite.service.SetRole(suite.ctx, "ANA@example.com", domain.RoleTreasurer)

	suite.Require().NoError(err)
	suite.Equal(domain.RoleTreasurer, profile.Role)
	suite.mockRepo.AssertExpectations(suite.T())

	_, err = suite.service.SetRole(suite.ctx, "ana@example.com", domain.Role("owner"))
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *ProfileServiceTestSuite) TestAuthenticateProfile() {
	hash, err := utils.HashPassword("correct-horse")
	suite.Require().NoError(err)
	stored := &domain.Profile{ProfileID: "p-1", Email: "ana@example.com", PasswordHash: hash}
	suite.mockRepo.On("FindProfileByEmail", suite.ctx, "ana@example.com").Return(stored, nil)
	suite.mockRepo.On("FindProfileByEmail", suite.ctx, "nobody@example.com").
		Return(nil, apperrors.NewNotFoundError("profile not found"))

	got, err := suite.service.AuthenticateProfile(suite.ctx, "Ana@example.com", "correct-horse")
	suite.Require().NoError(err)
	suite.Equal("p-1", got.ProfileID)

	_, err = suite.service.AuthenticateProfile(suite.ctx, "ana@example.com", "wrong")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)

	_, err = suite.service.AuthenticateProfile(suite.ctx, "nobody@example.com", "correct-horse")
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
	suite.Equal("invalid email or password", apperrors.Message(err))
}

func (suite *ProfileServiceTestSuite) TestCreateOAuthProfile_ExistingProviderLink() {
	linked := &domain.Profile{ProfileID: "p-1", AuthProvider: domain.ProviderGoogle}
	suite.mockRepo.On("FindProfileByProvider", suite.ctx, domain.ProviderGoogle, "google-sub").Return(linked, nil).Once()

	got, err := suite.service.CreateOAuthProfile(suite.ctx, domain.GoogleUserInfo{
		Subject: "google-sub", Email: "ana@example.com", EmailVerified: true,
	})

	suite.Require().NoError(err)
	suite.Same(linked, got)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveProfile", mock.Anything, mock.Anything)
}

func (suite *ProfileServiceTestSuite) TestCreateOAuthProfile_NewEmployee() {
	notFound := apperrors.NewNotFoundError("profile not found")
	suite.mockRepo.On("FindProfileByProvider", suite.ctx, domain.ProviderGoogle, "google-sub").Return(nil, notFound).Once()
	suite.mockRepo.On("FindProfileByEmail", suite.ctx, "ana@example.com").Return(nil, notFound).Once()
	suite.mockRepo.On("SaveProfile", suite.ctx, mock.MatchedBy(func(p domain.Profile) bool {
		return p.AuthProvider == domain.ProviderGoogle &&
			p.ProviderUserID != nil && *p.ProviderUserID == "google-sub" &&
			p.Role == domain.RoleEmployee &&
			p.PasswordHash == ""
	})).Return(nil).Once()

	got, err := suite.service.CreateOAuthProfile(suite.ctx, domain.GoogleUserInfo{
		Subject: "google-sub", Email: "Ana@example.com", Name: "Ana", EmailVerified: true,
	})

	suite.Require().NoError(err)
	suite.Equal("ana@example.com", got.Email)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *ProfileServiceTestSuite) TestCreateOAuthProfile_UnverifiedEmail() {
	_, err := suite.service.CreateOAuthProfile(suite.ctx, domain.GoogleUserInfo{
		Subject: "google-sub", Email: "ana@example.com", EmailVerified: false,
	})
	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

func TestProfileServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileServiceTestSuite))
}

// --- Token service ---

func newTokenFixture(t *testing.T) (portssvc.TokenSvcFacade, *MockProfileRepository) {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:                  "test-secret",
		JWTExpiryDuration:          15 * time.Minute,
		JWTIssuer:                  "issue-tracker-test",
		RefreshTokenExpiryDuration: 24 * time.Hour,
	}
	repo := new(MockProfileRepository)
	return services.NewTokenService(cfg, services.NewProfileService(repo)), repo
}

func TestTokenService_AccessTokenCarriesProfileID(t *testing.T) {
	svc, _ := newTokenFixture(t)

	token, expiresAt, err := svc.GenerateAccessToken(context.Background(), &domain.Profile{ProfileID: "p-1"})

	assert.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)
	claims, err := utils.ParseAndValidateJWT(token, "test-secret")
	assert.NoError(t, err)
	assert.Equal(t, "p-1", claims.Subject)
	assert.Equal(t, "issue-tracker-test", claims.Issuer)
}

func TestTokenService_RefreshTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTokenFixture(t)

	raw, expiresAt, err := svc.GenerateRefreshToken(ctx, &domain.Profile{ProfileID: "p-1"})
	assert.NoError(t, err)
	assert.Len(t, raw, 64)

	stored := &domain.Profile{
		ProfileID:              "p-1",
		RefreshTokenHash:       utils.HashRefreshToken(raw),
		RefreshTokenExpiryTime: &expiresAt,
	}
	repo.On("FindProfileByID", ctx, "p-1").Return(stored, nil)

	got, err := svc.ValidateAndParseRefreshToken(ctx, "p-1", raw)
	assert.NoError(t, err)
	assert.Equal(t, "p-1", got.ProfileID)

	_, err = svc.ValidateAndParseRefreshToken(ctx, "p-1", raw+"x")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestTokenService_RejectsExpiredOrClearedRefreshToken(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTokenFixture(t)

	past := time.Now().Add(-time.Minute)
	repo.On("FindProfileByID", ctx, "expired").Return(&domain.Profile{
		ProfileID: "expired", RefreshTokenHash: utils.HashRefreshToken("tok"), RefreshTokenExpiryTime: &past,
	}, nil)
	repo.On("FindProfileByID", ctx, "signed-out").Return(&domain.Profile{ProfileID: "signed-out"}, nil)
	repo.On("FindProfileByID", ctx, "missing").Return(nil, apperrors.NewNotFoundError("profile not found"))

	for _, id := range []string{"expired", "signed-out", "missing"} {
		_, err := svc.ValidateAndParseRefreshToken(ctx, id, "tok")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, id)
	}
}

func TestGoogleOAuth_ValidateIDTokenExtractsClaims(t *testing.T) {
	cfg := &config.Config{GoogleClientID: "client-id"}
	svc := services.NewGoogleOAuthHandlerServiceWithValidator(cfg, func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		assert.Equal(t, "client-id", audience)
		if token != "good" {
			return nil, errors.New("idtoken: invalid token")
		}
		return &idtoken.Payload{
			Subject: "google-sub",
			Claims: map[string]interface{}{
				"email":          "ana@example.com",
				"name":           "Ana",
				"email_verified": true,
			},
		}, nil
	})

	info, err := svc.ValidateGoogleIDToken(context.Background(), "good")
	assert.NoError(t, err)
	assert.Equal(t, domain.GoogleUserInfo{Subject: "google-sub", Email: "ana@example.com", Name: "Ana", EmailVerified: true}, *info)

	_, err = svc.ValidateGoogleIDToken(context.Background(), "bad")
	assert.Error(t, err)

	unconfigured := services.NewGoogleOAuthHandlerServiceWithValidator(&config.Config{}, nil)
	_, err = unconfigured.ValidateGoogleIDToken(context.Background(), "good")
	assert.Error(t, err)
}
