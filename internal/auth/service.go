// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/mailer"
	"github.com/carterperez-dev/citylistings/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidOrExpired   = errors.New("invalid or expired reset token")
	ErrEmailDelivery      = errors.New("reset email delivery failed")
)

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, displayName, passwordHash, passwordSalt string,
	) (*UserInfo, error)
	SetPassword(ctx context.Context, userID, passwordHash, passwordSalt string) error
	SetResetToken(
		ctx context.Context,
		userID, tokenHash string,
		expiresAt time.Time,
	) error
	ConsumeResetToken(
		ctx context.Context,
		email, tokenHash, passwordHash, passwordSalt string,
		now time.Time,
	) error
	IncrementTokenVersion(ctx context.Context, userID string) error
}

type ServiceConfig struct {
	SiteName      string
	BaseURL       string
	ResetTokenTTL time.Duration
}

type Service struct {
	jwt          *JWTManager
	userProvider UserProvider
	revocations  RevocationStore
	mailer       mailer.Sender
	cfg          ServiceConfig
	now          func() time.Time
}

func NewService(
	jwt *JWTManager,
	userProvider UserProvider,
	revocations RevocationStore,
	sender mailer.Sender,
	cfg ServiceConfig,
) *Service {
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	return &Service{
		jwt:          jwt,
		userProvider: userProvider,
		revocations:  revocations,
		mailer:       sender,
		cfg:          cfg,
		now:          time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*UserInfo, error) {
	hash, salt, err := core.NewPasswordHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userProvider.Create(
		ctx,
		NormalizeEmail(req.Email),
		strings.TrimSpace(req.DisplayName),
		hash,
		salt,
	)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.userProvider.GetByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.VerifyPasswordTimingSafe(req.Password, "", "")
			loginAttempts.WithLabelValues("unknown_user").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !core.VerifyPasswordTimingSafe(req.Password, user.PasswordSalt, user.PasswordHash) {
		loginAttempts.WithLabelValues("bad_password").Inc()
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwt.CreateSessionToken(SessionTokenClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("create session token: %w", err)
	}

	loginAttempts.WithLabelValues("success").Inc()

	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Logout revokes a still-valid token until its expiry. Unparseable tokens
// are ignored since they cannot authenticate anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.jwt.ParseSessionToken(token)
	if err != nil {
		return nil
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// VerifySessionToken checks the signature, the revocation list and the
// user's current token version. The role in the result is read from the
// user record, so demotions apply to tokens already issued.
func (s *Service) VerifySessionToken(
	ctx context.Context,
	token string,
) (*middleware.SessionClaims, error) {
	claims, err := s.jwt.ParseSessionToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("verify token: unknown user: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("verify token: %w", err)
	}

	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	claims.Role = user.Role
	claims.Email = user.Email
	return claims, nil
}

// CurrentUser returns nil without an error for any token that does not
// authenticate.
func (s *Service) CurrentUser(ctx context.Context, token string) *PublicUser {
	if token == "" {
		return nil
	}

	claims, err := s.VerifySessionToken(ctx, token)
	if err != nil {
		return nil
	}

	user, err := s.userProvider.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil
	}

	public := user.Public()
	return &public
}

func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userProvider.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			passwordResets.WithLabelValues("request", "unknown_user").Inc()
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.userProvider.SetResetToken(ctx, user.ID, core.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	msg, err := mailer.BuildPasswordResetEmail(user.Email, mailer.PasswordResetData{
		SiteName:  s.cfg.SiteName,
		ResetLink: s.ResetLink(token, user.Email),
		ExpiresIn: formatTTL(s.cfg.ResetTokenTTL),
	})
	if err != nil {
		return fmt.Errorf("build reset email: %w", err)
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		passwordResets.WithLabelValues("request", "delivery_failed").Inc()
		slog.ErrorContext(ctx, "reset email delivery failed",
			"user_id", user.ID,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	passwordResets.WithLabelValues("request", "sent").Inc()
	return nil
}

func (s *Service) ResetLink(token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return s.cfg.BaseURL + "/reset?" + q.Encode()
}

// ResetPassword consumes the reset token atomically, so a token works at
// most once. It also ends every existing session of the user.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	hash, salt, err := core.NewPasswordHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.userProvider.ConsumeResetToken(
		ctx,
		NormalizeEmail(req.Email),
		core.HashToken(strings.TrimSpace(req.Token)),
		hash,
		salt,
		s.now(),
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			passwordResets.WithLabelValues("complete", "invalid").Inc()
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	passwordResets.WithLabelValues("complete", "success").Inc()
	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.userProvider.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if !core.VerifyPassword(currentPassword, user.PasswordSalt, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	hash, salt, err := core.NewPasswordHash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userProvider.SetPassword(ctx, userID, hash, salt); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

// LogoutAll ends every session of the user by bumping its token version.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if err := s.userProvider.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("increment token version: %w", err)
	}
	return nil
}

func formatTTL(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return d.String()
	}
}
