package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/issue_tracker/internal/apperrors"
	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/middleware"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/gin-gonic/gin"
)

// GoogleOAuthHandler handles Google OAuth related requests.
// It depends on the Google OAuth service, profile service, and token service.
type GoogleOAuthHandler struct {
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	profileService     portssvc.ProfileSvcFacade
	tokenService       portssvc.TokenSvcFacade
	analytics          *utils.PosthogClientWrapper
}

// NewGoogleOAuthHandler creates a new instance of GoogleOAuthHandler.
func NewGoogleOAuthHandler(
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade,
	profileService portssvc.ProfileSvcFacade,
	tokenService portssvc.TokenSvcFacade,
	analytics *utils.PosthogClientWrapper,
) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		googleOAuthService: googleOAuthService,
		profileService:     profileService,
		tokenService:       tokenService,
		analytics:          analytics,
	}
}

// LoginURLGoogle returns the Google consent screen URL together with the state the
// front-end must verify on the redirect back.
// @Summary Get the Google sign-in URL
// @Tags oauth
// @Produce  json
// @Success 200 {object} dto.GoogleLoginURLResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/google/url [get]
func (h *GoogleOAuthHandler) LoginURLGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	state, err := h.googleOAuthService.GenerateStateString(ctx)
	if err != nil {
		respondWithError(c, err, "Failed to generate OAuth state")
		return
	}
	c.JSON(http.StatusOK, dto.GoogleLoginURLResponse{
		URL:   h.googleOAuthService.GetGoogleLoginURL(ctx, state),
		State: state,
	})
}

// ExchangeCodeGoogle handles the POST request from the frontend containing the authorization code from Google.
// It exchanges the code for Google tokens, validates the ID token, finds or creates the profile
// and returns an application session.
// @Summary Exchange a Google authorization code for a session
// @Tags oauth
// @Accept  json
// @Produce  json
// @Param   code body dto.ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse "Invalid authorization code"
// @Failure 401 {object} ErrorResponse "Invalid Google identity"
// @Failure 504 {object} ErrorResponse "Google did not respond"
// @Router /auth/google/exchange-code [post]
func (h *GoogleOAuthHandler) ExchangeCodeGoogle(c *gin.Context) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx)

	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for exchange code request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload: " + err.Error()})
		return
	}

	oauth2Token, err := h.googleOAuthService.ExchangeCodeForToken(ctx, req.Code)
	if err != nil {
		appErr := apperrors.NewGatewayTimeoutError("Failed to communicate with Google OAuth service.")
		lower := strings.ToLower(err.Error())
		if strings.Contains(lower, "invalid_grant") || strings.Contains(lower, "bad request") {
			appErr = apperrors.NewBadRequestError("Invalid or expired authorization code provided by Google.")
		}
		logger.Error("Failed to exchange authorization code with Google", slog.String("error", err.Error()))
		c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
		return
	}

	idTokenString, ok := oauth2Token.Extra("id_token").(string)
	if !ok || idTokenString == "" {
		logger.Error("ID token not found in Google's token response")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "Failed to retrieve ID token from Google."})
		return
	}

	info, err := h.googleOAuthService.ValidateGoogleIDToken(ctx, idTokenString)
	if err != nil {
		respondWithError(c, err, "Google ID token validation failed")
		return
	}

	profile, err := h.profileService.CreateOAuthProfile(ctx, *info)
	if err != nil {
		respondWithError(c, err, "Failed to resolve profile for Google identity")
		return
	}
	logger.Info("Profile signed in via Google", slog.String("profile_id", profile.ProfileID))

	resp, err := issueSession(c, h.tokenService, h.profileService, profile)
	if err != nil {
		respondWithError(c, err, "Failed to issue session")
		return
	}

	h.analytics.Enqueue(profile.ProfileID, "user_logged_in", map[string]any{"provider": string(domain.ProviderGoogle)})
	c.JSON(http.StatusOK, resp)
}

// registerGoogleOAuthRoutes registers the Google OAuth routes.
func registerGoogleOAuthRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, analytics *utils.PosthogClientWrapper) {
	h := NewGoogleOAuthHandler(services.GoogleOAuthHandler, services.Profile, services.TokenService, analytics)
	googleRoutes := rg.Group("/auth/google")
	{
		googleRoutes.GET("/url", h.LoginURLGoogle)
		googleRoutes.POST("/exchange-code", h.ExchangeCodeGoogle)
	}
}
