// AngelaMos | 2026
// dto.go

package auth

type RegisterRequest struct {
	Email       string `json:"email"       validate:"required,email,max=255"`
	Password    string `json:"password"    validate:"required,min=6,max=128"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,max=255"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"       validate:"required,max=256"`
	Email       string `json:"email"       validate:"required,max=255"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=128"`
}

// PublicUser is the projection returned to browsers. It never carries
// credential material.
type PublicUser struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type LoginResponse struct {
	OK   bool       `json:"ok"`
	User PublicUser `json:"user"`
}

type MeResponse struct {
	User *PublicUser `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type OKMessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
