package services

import (
	portsrepo "github.com/SscSPs/issue_tracker/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/core/ports/storage"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/SscSPs/issue_tracker/internal/utils"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	blobStore storage.BlobStore,
	analytics *utils.PosthogClientWrapper,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Profile = NewProfileService(repos.ProfileRepo)
	container.Issue = NewIssueService(
		repos.IssueRepo,
		blobStore,
		WithAnalytics(analytics),
		WithMaxUploadBytes(cfg.MaxUploadBytes),
	)

	container.TokenService = NewTokenService(cfg, container.Profile)
	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.IssueSvcFacade              = (*issueService)(nil)
	_ portssvc.ProfileSvcFacade            = (*profileService)(nil)
	_ portssvc.TokenSvcFacade              = (*tokenService)(nil)
	_ portssvc.GoogleOAuthHandlerSvcFacade = (*googleOAuthHandlerService)(nil)
)
