// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

type UserInfo struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	PasswordSalt string
	Role         string
	TokenVersion int
}

func (u *UserInfo) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
	}
}

// Session is a freshly issued session token and the user it belongs to.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *UserInfo
}
