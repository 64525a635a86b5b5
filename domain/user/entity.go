package user

import (
	"time"
)

// Role names known to the system. Both are created on first registration.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// User represents a registered account. The email address doubles as the
// login name and is kept unique.
type User struct {
	ID           string `gorm:"primaryKey;size:36"`
	FirstName    string `gorm:"size:50;not null"`
	LastName     string `gorm:"size:50;not null"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	LastLoginAt  *time.Time
	Roles        []Role `gorm:"many2many:user_roles"`
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// FullName returns the display name for the user.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// RoleNames returns the names of the roles assigned to the user.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the user holds the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user holds the administrative role.
func (u *User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// Role is a named role that can be assigned to any number of users.
type Role struct {
	ID   string `gorm:"primaryKey;size:36"`
	Name string `gorm:"uniqueIndex;not null;size:50"`
}

// TableName returns the table name for the Role entity.
func (Role) TableName() string {
	return "roles"
}

// TokenPair represents access and refresh tokens issued for a session.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Claims represents the identity attached to an authenticated request.
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the claims carry the administrative role.
func (c *Claims) IsAdmin() bool {
	for _, r := range c.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
