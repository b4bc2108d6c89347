package dto

import (
	"time"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
)

// CreateProfileRequest is used by registration, Google sign-in and the admin CLI.
type CreateProfileRequest struct {
	Name           string              `validate:"required,max=255"`
	Email          string              `validate:"required,email"`
	Password       string              `validate:"omitempty,min=8,max=72"` // empty for external providers
	Role           domain.Role         `validate:"omitempty,oneof=bendahara karyawan"`
	AuthProvider   domain.AuthProvider `validate:"omitempty,oneof=local google"`
	ProviderUserID string              `validate:"required_if=AuthProvider google"`
}

// ProfileResponse defines data returned for a profile.
type ProfileResponse struct {
	ProfileID    string              `json:"id"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Role         domain.Role         `json:"role"`
	AuthProvider domain.AuthProvider `json:"authProvider"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// ToProfileResponse converts domain.Profile to DTO.
func ToProfileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ProfileID:    p.ProfileID,
		Name:         p.Name,
		Email:        p.Email,
		Role:         p.Role,
		AuthProvider: p.AuthProvider,
		CreatedAt:    p.CreatedAt,
	}
}
