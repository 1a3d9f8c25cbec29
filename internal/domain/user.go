package domain

import "time"

// UserRole enumerates supported roles.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Profile represents an authenticated account as read from storage. The
// generation pipeline consumes it; role, limits, and system-key access are
// written only through the admin surface.
type Profile struct {
	ID               string
	Email            string
	Role             UserRole
	ImageLimit       int
	ImagesGenerated  int
	AllowedSystemKey bool
	CreatedAt        time.Time
}

// IsAdmin reports whether the profile carries the admin role.
func (p Profile) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

// QuotaExhausted reports whether the profile has spent its generation quota.
func (p Profile) QuotaExhausted() bool {
	return p.ImagesGenerated >= p.ImageLimit
}
