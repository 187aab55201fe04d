// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/citylistings/internal/auth"
	"github.com/carterperez-dev/citylistings/internal/core"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) Create(
	ctx context.Context,
	email, displayName, passwordHash, passwordSalt string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           core.NewID(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		PasswordSalt: passwordSalt,
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) SetPassword(
	ctx context.Context,
	userID, passwordHash, passwordSalt string,
) error {
	return s.repo.SetPassword(ctx, userID, passwordHash, passwordSalt)
}

func (s *Service) SetResetToken(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetResetToken(ctx, userID, tokenHash, expiresAt)
}

func (s *Service) ConsumeResetToken(
	ctx context.Context,
	email, tokenHash, passwordHash, passwordSalt string,
	now time.Time,
) error {
	return s.repo.ConsumeResetToken(
		ctx,
		strings.ToLower(strings.TrimSpace(email)),
		tokenHash,
		passwordHash,
		passwordSalt,
		now,
	)
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

// EnsureAdmin creates the bootstrap administrator or promotes an existing
// account with that email. The stored password is only set on creation.
func (s *Service) EnsureAdmin(
	ctx context.Context,
	email, password, displayName string,
) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return nil
		}
		existing.Role = RoleAdmin
		if err := s.repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("promote admin: %w", err)
		}
		slog.InfoContext(ctx, "promoted bootstrap admin", "user_id", existing.ID)
		return nil
	case !errors.Is(err, core.ErrNotFound):
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, salt, err := core.NewPasswordHash(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if displayName == "" {
		displayName = "Administrator"
	}

	admin := &User{
		ID:           core.NewID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		PasswordSalt: salt,
		Role:         RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	slog.InfoContext(ctx, "created bootstrap admin", "user_id", admin.ID)
	return nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) UpdateUserRole(
	ctx context.Context,
	id, role string,
) (*User, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Role = role

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()
	return s.repo.List(ctx, params)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// CanDeleteUser allows removing oneself, and allows admins to remove
// non-admin accounts.
func (s *Service) CanDeleteUser(
	ctx context.Context,
	requesterID, targetID string,
) error {
	if requesterID == targetID {
		return nil
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}

	if !requester.IsAdmin() {
		return fmt.Errorf("delete user: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin users: %w", core.ErrForbidden)
	}

	return nil
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		PasswordSalt: u.PasswordSalt,
		Role:         u.Role,
		TokenVersion: u.TokenVersion,
	}
}

var _ auth.UserProvider = (*Service)(nil)
