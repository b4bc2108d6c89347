package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/middleware"
	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/SscSPs/issue_tracker/internal/utils"
	"github.com/gin-gonic/gin"
)

// loginRate is the per-IP budget for credential checks.
const loginRate = "5-M"

// AuthHandler handles authentication related requests.
type AuthHandler struct {
	profileService portssvc.ProfileSvcFacade
	tokenService   portssvc.TokenSvcFacade
	analytics      *utils.PosthogClientWrapper
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(ps portssvc.ProfileSvcFacade, ts portssvc.TokenSvcFacade, analytics *utils.PosthogClientWrapper) *AuthHandler {
	return &AuthHandler{
		profileService: ps,
		tokenService:   ts,
		analytics:      analytics,
	}
}

// registerAuthRoutes sets up the routes for authentication.
func registerAuthRoutes(rg *gin.RouterGroup, cfg *config.Config, services *portssvc.ServiceContainer, analytics *utils.PosthogClientWrapper) error {
	h := NewAuthHandler(services.Profile, services.TokenService, analytics)

	loginLimiter, err := middleware.NewMemoryLimiter(loginRate)
	if err != nil {
		return err
	}
	limitMiddleware := middleware.RateLimit(loginLimiter)

	auth := rg.Group("/auth")
	{
		auth.POST("/login", limitMiddleware, h.Login)
		auth.POST("/register", limitMiddleware, h.Register)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", middleware.AuthMiddleware(cfg.JWTSecret), h.Logout)
	}
	return nil
}

// issueSession mints an access/refresh token pair and stores the refresh token hash,
// replacing any earlier one.
func issueSession(c *gin.Context, tokens portssvc.TokenSvcFacade, profiles portssvc.ProfileWriterSvc, profile *domain.Profile) (*dto.LoginResponse, error) {
	ctx := c.Request.Context()

	accessToken, accessExpiry, err := tokens.GenerateAccessToken(ctx, profile)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExpiry, err := tokens.GenerateRefreshToken(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := profiles.UpdateRefreshToken(ctx, profile.ProfileID, utils.HashRefreshToken(refreshToken), refreshExpiry); err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token:                 accessToken,
		ExpiresAt:             accessExpiry,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExpiry,
		UserID:                profile.ProfileID,
	}, nil
}

// Login godoc
// @Summary Local login
// @Description Authenticates with email and password and returns an access and refresh token.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	profile, err := h.profileService.AuthenticateProfile(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(c, err, "Login failed")
		return
	}

	resp, err := issueSession(c, h.tokenService, h.profileService, profile)
	if err != nil {
		respondWithError(c, err, "Failed to issue session")
		return
	}

	h.analytics.Enqueue(profile.ProfileID, "user_logged_in", map[string]any{"provider": string(domain.ProviderLocal)})
	c.JSON(http.StatusOK, resp)
}

// Register godoc
// @Summary Register a new employee
// @Description Creates a local profile with the employee role.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "Registration details"
// @Success 201 {object} dto.ProfileResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Failure 500 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	profile, err := h.profileService.CreateProfile(c.Request.Context(), dto.CreateProfileRequest{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         domain.RoleEmployee,
		AuthProvider: domain.ProviderLocal,
	})
	if err != nil {
		respondWithError(c, err, "Failed to register profile")
		return
	}

	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Profile registered", slog.String("profile_id", profile.ProfileID))
	c.JSON(http.StatusCreated, dto.ToProfileResponse(profile))
}

// Refresh godoc
// @Summary Refresh the session
// @Description Exchanges a valid refresh token for a new token pair. The old refresh token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	profile, err := h.tokenService.ValidateAndParseRefreshToken(c.Request.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		respondWithError(c, err, "Refresh token rejected")
		return
	}

	resp, err := issueSession(c, h.tokenService, h.profileService, profile)
	if err != nil {
		respondWithError(c, err, "Failed to issue session")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Log out
// @Description Revokes the caller's refresh token.
// @Tags auth
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.profileService.ClearRefreshToken(c.Request.Context(), userID); err != nil {
		respondWithError(c, err, "Failed to log out")
		return
	}

	middleware.PosthogEvent(c, h.analytics, "user_logged_out", nil)
	c.Status(http.StatusNoContent)
}
