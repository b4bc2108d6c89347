package handlers_test

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"
)

// --- Mock IssueService ---
type MockIssueService struct {
	mock.Mock
}

func (m *MockIssueService) GetIssue(ctx context.Context, issueID string, actor domain.Actor) (*domain.Issue, error) {
	args := m.Called(ctx, issueID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

func (m *MockIssueService) ListIssues(ctx context.Context, actor domain.Actor, params dto.ListIssuesParams) ([]domain.IssueWithOwner, *string, error) {
	args := m.Called(ctx, actor, params)
	var issues []domain.IssueWithOwner
	if args.Get(0) != nil {
		issues = args.Get(0).([]domain.IssueWithOwner)
	}
	var next *string
	if args.Get(1) != nil {
		next = args.Get(1).(*string)
	}
	return issues, next, args.Error(2)
}

func (m *MockIssueService) EvidenceURL(path string) string {
	return "http://files.test/" + path
}

func (m *MockIssueService) AllowedActions(issue *domain.Issue, actor domain.Actor) []domain.Action {
	return domain.NewLifecycle().PermittedActions(issue, actor)
}

func (m *MockIssueService) CreateIssue(ctx context.Context, actor domain.Actor, req dto.CreateIssueRequest) (*domain.Issue, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}

func (m *MockIssueService) transition(args mock.Arguments) (*domain.Transition, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transition), args.Error(1)
}

func (m *MockIssueService) Accept(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return m.transition(m.Called(ctx, issueID, actor))
}

func (m *MockIssueService) Reject(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return m.transition(m.Called(ctx, issueID, actor))
}

func (m *MockIssueService) Validate(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return m.transition(m.Called(ctx, issueID, actor))
}

func (m *MockIssueService) RequestRevision(ctx context.Context, issueID string, actor domain.Actor) (*domain.Transition, error) {
	return m.transition(m.Called(ctx, issueID, actor))
}

func (m *MockIssueService) UploadEvidence(ctx context.Context, issueID string, actor domain.Actor, files []portssvc.EvidenceFile, remainingAmount decimal.Decimal) (*portssvc.EvidenceUploadResult, error) {
	args := m.Called(ctx, issueID, actor, files, remainingAmount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.EvidenceUploadResult), args.Error(1)
}

func (m *MockIssueService) ExportIssues(ctx context.Context, actor domain.Actor, status string, w io.Writer) error {
	args := m.Called(ctx, actor, status, w)
	if body, ok := args.Get(0).([]byte); ok {
		if _, err := w.Write(body); err != nil {
			return err
		}
	}
	return args.Error(1)
}

var _ portssvc.IssueSvcFacade = (*MockIssueService)(nil)

// --- Mock ProfileService ---
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetProfileByID(ctx context.Context, profileID string) (*domain.Profile, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileService) ResolveActor(ctx context.Context, profileID string) (domain.Actor, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(domain.Actor), args.Error(1)
}

func (m *MockProfileService) CreateProfile(ctx context.Context, req dto.CreateProfileRequest) (*domain.Profile, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileService) SetRole(ctx context.Context, email string, role domain.Role) (*domain.Profile, error) {
	args := m.Called(ctx, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileService) UpdateRefreshToken(ctx context.Context, profileID string, refreshTokenHash string, expiry time.Time) error {
	return m.Called(ctx, profileID, refreshTokenHash, expiry).Error(0)
}

func (m *MockProfileService) ClearRefreshToken(ctx context.Context, profileID string) error {
	return m.Called(ctx, profileID).Error(0)
}

func (m *MockProfileService) AuthenticateProfile(ctx context.Context, email, password string) (*domain.Profile, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileService) CreateOAuthProfile(ctx context.Context, info domain.GoogleUserInfo) (*domain.Profile, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

var _ portssvc.ProfileSvcFacade = (*MockProfileService)(nil)

// --- Mock TokenService ---
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) GenerateAccessToken(ctx context.Context, profile *domain.Profile) (string, time.Time, error) {
	args := m.Called(ctx, profile)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) GenerateRefreshToken(ctx context.Context, profile *domain.Profile) (string, time.Time, error) {
	args := m.Called(ctx, profile)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenService) ValidateAndParseRefreshToken(ctx context.Context, profileID string, refreshTokenString string) (*domain.Profile, error) {
	args := m.Called(ctx, profileID, refreshTokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

var _ portssvc.TokenSvcFacade = (*MockTokenService)(nil)

// --- Mock GoogleOAuthService ---
type MockGoogleOAuthService struct {
	mock.Mock
}

func (m *MockGoogleOAuthService) GenerateStateString(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGoogleOAuthService) GetGoogleLoginURL(ctx context.Context, state string) string {
	return m.Called(ctx, state).String(0)
}

func (m *MockGoogleOAuthService) ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

func (m *MockGoogleOAuthService) ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*domain.GoogleUserInfo, error) {
	args := m.Called(ctx, idTokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GoogleUserInfo), args.Error(1)
}

var _ portssvc.GoogleOAuthHandlerSvcFacade = (*MockGoogleOAuthService)(nil)
