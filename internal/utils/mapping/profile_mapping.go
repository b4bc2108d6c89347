package mapping

import (
	"database/sql"

	"github.com/SscSPs/issue_tracker/internal/core/domain"
	"github.com/SscSPs/issue_tracker/internal/models"
)

// ToModelProfile converts a domain Profile to a model Profile
func ToModelProfile(d domain.Profile) models.Profile {
	m := models.Profile{
		ProfileID:    d.ProfileID,
		Name:         d.Name,
		Email:        d.Email,
		Role:         string(d.Role),
		PasswordHash: sql.NullString{String: d.PasswordHash, Valid: d.PasswordHash != ""},
		AuthProvider: string(d.AuthProvider),
		RefreshTokenHash: sql.NullString{
			String: d.RefreshTokenHash,
			Valid:  d.RefreshTokenHash != "",
		},
		Timestamps: ToModelTimestamps(d.Timestamps),
	}
	if d.ProviderUserID != nil {
		m.ProviderUserID = sql.NullString{String: *d.ProviderUserID, Valid: true}
	}
	if d.RefreshTokenExpiryTime != nil {
		m.RefreshTokenExpiryTime = sql.NullTime{Time: *d.RefreshTokenExpiryTime, Valid: true}
	}
	return m
}

// ToDomainProfile converts a model Profile to a domain Profile
func ToDomainProfile(m models.Profile) domain.Profile {
	d := domain.Profile{
		ProfileID:        m.ProfileID,
		Name:             m.Name,
		Email:            m.Email,
		Role:             domain.Role(m.Role),
		PasswordHash:     m.PasswordHash.String,
		AuthProvider:     domain.AuthProvider(m.AuthProvider),
		RefreshTokenHash: m.RefreshTokenHash.String,
		Timestamps:       ToDomainTimestamps(m.Timestamps),
	}
	if m.ProviderUserID.Valid {
		providerUserID := m.ProviderUserID.String
		d.ProviderUserID = &providerUserID
	}
	if m.RefreshTokenExpiryTime.Valid {
		expiry := m.RefreshTokenExpiryTime.Time
		d.RefreshTokenExpiryTime = &expiry
	}
	return d
}
