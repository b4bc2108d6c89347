package domain

import "time"

// Role defines what a profile is allowed to do with issues.
type Role string

const (
	RoleTreasurer Role = "bendahara" // reviews, accepts, rejects and validates issues
	RoleEmployee  Role = "karyawan"  // creates issues and uploads evidence
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleTreasurer || r == RoleEmployee
}

// AuthProvider records how a profile signs in.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
)

// Profile is the stored identity of a person using the tracker.
type Profile struct {
	ProfileID      string       `json:"id"`
	Name           string       `json:"name"`
	Email          string       `json:"email"`
	Role           Role         `json:"role"`
	PasswordHash   string       `json:"-"`
	AuthProvider   AuthProvider `json:"authProvider"`
	ProviderUserID *string      `json:"-"`
	// RefreshTokenHash is the SHA-256 of the outstanding refresh token, empty when signed out.
	RefreshTokenHash       string     `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`
	Timestamps
}

// HasValidRefreshToken reports whether a refresh token is stored and not yet expired at now.
func (p *Profile) HasValidRefreshToken(now time.Time) bool {
	return p.RefreshTokenHash != "" && p.RefreshTokenExpiryTime != nil && now.Before(*p.RefreshTokenExpiryTime)
}

// GoogleUserInfo holds the verified claims taken from a Google ID token.
type GoogleUserInfo struct {
	Subject       string
	Email         string
	Name          string
	EmailVerified bool
}

// Actor is the authenticated caller of an operation together with the role looked up for it.
// It is always resolved per request and passed explicitly into the lifecycle.
type Actor struct {
	ID   string
	Role Role
}

// IsTreasurer reports whether the actor holds the treasurer role.
func (a Actor) IsTreasurer() bool {
	return a.Role == RoleTreasurer
}

// ActorFromProfile converts a stored profile into the actor performing a request.
func ActorFromProfile(p *Profile) Actor {
	return Actor{ID: p.ProfileID, Role: p.Role}
}
