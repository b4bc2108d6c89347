package models

import (
	"database/sql"
)

// Profile is a row of the profiles table.
type Profile struct {
	ProfileID      string         `db:"id"`
	Name           string         `db:"name"`
	Email          string         `db:"email"`
	Role           string         `db:"role"`
	PasswordHash   sql.NullString `db:"password_hash"`
	AuthProvider   string         `db:"auth_provider"`
	ProviderUserID sql.NullString `db:"provider_user_id"`

	// Refresh Token Fields
	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`        // Store hash of the refresh token
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"` // Expiry of the stored refresh token
	Timestamps
}
