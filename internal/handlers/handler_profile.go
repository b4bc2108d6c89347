package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/issue_tracker/internal/core/ports/services"
	"github.com/SscSPs/issue_tracker/internal/dto"
	"github.com/SscSPs/issue_tracker/internal/middleware"
	"github.com/gin-gonic/gin"
)

type profileHandler struct {
	profileService portssvc.ProfileReaderSvc
}

func registerProfileRoutes(rg *gin.RouterGroup, ps portssvc.ProfileReaderSvc) {
	h := &profileHandler{profileService: ps}
	profiles := rg.Group("/profiles")
	{
		profiles.GET("/me", h.getMe)
	}
}

// getMe godoc
// @Summary Get the current profile
// @Description Returns the caller's profile including the role used for issue permissions.
// @Tags profiles
// @Produce  json
// @Success 200 {object} dto.ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /profiles/me [get]
func (h *profileHandler) getMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	profile, err := h.profileService.GetProfileByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to load current profile")
		return
	}
	c.JSON(http.StatusOK, dto.ToProfileResponse(profile))
}
