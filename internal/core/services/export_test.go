package services

import (
	"context"

	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"google.golang.org/api/idtoken"
)

func NewGoogleOAuthHandlerServiceWithValidator(
	cfg *config.Config,
	validate func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error),
) portssvc.GoogleOAuthHandlerSvcFacade {
	svc := NewGoogleOAuthHandlerService(cfg).(*googleOAuthHandlerService)
	svc.validate = validate
	return svc
}
