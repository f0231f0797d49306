// Package users provides the minimal identity layer: login names with
// bcrypt password hashes and a USER/ADMIN role. Password hashes never
// leave the package.
package users

import (
	"time"

	"github.com/akeil/stashd/internal/domain"
)

// User is one identity row. The password hash is deliberately not
// serialized.
type User struct {
	ID         int64           `json:"id"`
	Login      string          `json:"user_login"`
	Role       domain.UserRole `json:"role"`
	IsActive   bool            `json:"is_active"`
	CreatedAt  time.Time       `json:"created_at"`
	ModifiedAt time.Time       `json:"modified_at"`

	passwordHash string
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}
