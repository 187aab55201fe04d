// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID                  string     `db:"id"                     bson:"_id"`
	Email               string     `db:"email"                  bson:"email"`
	DisplayName         string     `db:"display_name"           bson:"display_name"`
	PasswordHash        string     `db:"password_hash"          bson:"password_hash"`
	PasswordSalt        string     `db:"password_salt"          bson:"password_salt"`
	Role                string     `db:"role"                   bson:"role"`
	TokenVersion        int        `db:"token_version"          bson:"token_version"`
	ResetTokenHash      *string    `db:"reset_token_hash"       bson:"reset_token_hash,omitempty"`
	ResetTokenExpiresAt *time.Time `db:"reset_token_expires_at" bson:"reset_token_expires_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at"             bson:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"             bson:"updated_at"`
	DeletedAt           *time.Time `db:"deleted_at"             bson:"deleted_at,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
