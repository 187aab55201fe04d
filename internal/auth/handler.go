// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/citylistings/internal/core"
	"github.com/carterperez-dev/citylistings/internal/middleware"
)

const forgotPasswordMessage = "If that email exists, a reset link has been sent"

type HandlerConfig struct {
	CookieName   string
	SecureCookie bool
}

type Handler struct {
	service   *Service
	validator *validator.Validate
	cfg       HandlerConfig
}

func NewHandler(service *Service, cfg HandlerConfig) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = middleware.DefaultSessionCookie
	}
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
		cfg:       cfg,
	}
}

// RegisterRoutes mounts /auth. limiter guards the credential endpoints and
// may be nil.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter)
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/forgot", h.ForgotPassword)
			r.Post("/reset", h.ResetPassword)
		})

		r.Post("/logout", h.Logout)
		r.Get("/me", h.GetMe)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Post("/change-password", h.ChangePassword)
			r.Post("/logout-all", h.LogoutAll)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "Missing fields")
		return
	}

	if blank(req.Email, req.Password, req.DisplayName) {
		core.BadRequest(w, "Missing fields")
		return
	}

	req.Email = NormalizeEmail(req.Email)
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if _, err := h.service.Register(r.Context(), req); err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.Conflict(w, "Email already registered")
			return
		}
		core.InternalServerError(w, "Registration failed", err)
		return
	}

	core.Created(w, OKResponse{OK: true})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		blank(req.Email, req.Password) {
		core.Unauthorized(w, "Invalid credentials")
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			slog.WarnContext(r.Context(), "login rejected",
				"ip", extractIPAddress(r),
			)
			core.Unauthorized(w, "Invalid credentials")
			return
		}
		core.InternalServerError(w, "Login failed", err)
		return
	}

	h.setSessionCookie(w, session.Token, session.ExpiresAt)

	user := session.User.Public()
	user.ID = ""
	core.OK(w, LoginResponse{OK: true, User: user})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r, h.cfg.CookieName)

	if err := h.service.Logout(r.Context(), token); err != nil {
		core.InternalServerError(w, "Logout failed", err)
		return
	}

	h.clearSessionCookie(w)
	core.OK(w, MessageResponse{Message: "Logged out"})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r, h.cfg.CookieName)
	core.OK(w, MeResponse{User: h.service.CurrentUser(r.Context(), token)})
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		blank(req.Email) {
		core.BadRequest(w, "Email required")
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		core.InternalServerError(w, "Unable to send reset email", err)
		return
	}

	core.OK(w, OKMessageResponse{OK: true, Message: forgotPasswordMessage})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		blank(req.Token, req.Email, req.NewPassword) {
		core.BadRequest(w, "Missing fields")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req); err != nil {
		if errors.Is(err, ErrInvalidOrExpired) {
			core.BadRequest(w, "Invalid or expired token")
			return
		}
		core.InternalServerError(w, "Password reset failed", err)
		return
	}

	core.OK(w, OKMessageResponse{OK: true, Message: "Password reset successful"})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "Not authenticated")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "Missing fields")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.Unauthorized(w, "Current password is incorrect")
			return
		}
		core.InternalServerError(w, "Password change failed", err)
		return
	}

	h.clearSessionCookie(w)
	core.OK(w, OKMessageResponse{OK: true, Message: "Password changed"})
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "Not authenticated")
		return
	}

	if err := h.service.LogoutAll(r.Context(), userID); err != nil {
		core.InternalServerError(w, "Logout failed", err)
		return
	}

	h.clearSessionCookie(w)
	core.OK(w, MessageResponse{Message: "Logged out everywhere"})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func blank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// extractIPAddress returns the client address, preferring the last hop in
// X-Forwarded-For.
func extractIPAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}
