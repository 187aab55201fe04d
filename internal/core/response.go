// AngelaMos | 2026
// response.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
)

var exposeErrors atomic.Bool

// ExposeInternalErrors controls whether 500 responses carry the underlying
// error text. Enabled outside production only.
func ExposeInternalErrors(enabled bool) {
	exposeErrors.Store(enabled)
}

// ErrorResponse is the failure half of the {ok} envelope family.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SuccessResponse is the {success} envelope family used by listing reads.
type SuccessResponse struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Debug   any    `json:"debug,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		TotalItems: total,
	}
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	//nolint:errcheck // best-effort response write
	_ = json.NewEncoder(w).Encode(data)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{OK: false, Message: message})
}

func BadRequest(w http.ResponseWriter, message string) {
	Fail(w, http.StatusBadRequest, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	Fail(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Forbidden"
	}
	Fail(w, http.StatusForbidden, message)
}

func NotFound(w http.ResponseWriter, message string) {
	Fail(w, http.StatusNotFound, message)
}

func Conflict(w http.ResponseWriter, message string) {
	Fail(w, http.StatusConflict, message)
}

func InternalServerError(w http.ResponseWriter, message string, err error) {
	slog.Error("request failed", "message", message, "error", err)
	JSON(w, http.StatusInternalServerError, ErrorResponse{
		OK:      false,
		Message: message,
		Error:   errorDetail(err),
	})
}

// JSONError writes err in the {ok} family, using the AppError mapping when
// one is present in the chain.
func JSONError(w http.ResponseWriter, err error) {
	if appErr, ok := AsAppError(err); ok {
		JSON(w, appErr.StatusCode, ErrorResponse{
			OK:      false,
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}
	InternalServerError(w, "Internal server error", err)
}

func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, SuccessResponse{Success: true, Data: data})
}

func Paginated(w http.ResponseWriter, data any, p Pagination) {
	JSON(w, http.StatusOK, SuccessResponse{
		Success:    true,
		Data:       data,
		Pagination: &p,
	})
}

func Failure(w http.ResponseWriter, status int, message string) {
	JSON(w, status, FailureResponse{Success: false, Message: message})
}

func ServerFailure(w http.ResponseWriter, message string, err error) {
	slog.Error("request failed", "message", message, "error", err)
	JSON(w, http.StatusInternalServerError, FailureResponse{
		Success: false,
		Message: message,
		Error:   errorDetail(err),
	})
}

func errorDetail(err error) string {
	if err == nil || !exposeErrors.Load() {
		return ""
	}
	return err.Error()
}

func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeField(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeField(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "iscolor":
		return fmt.Sprintf("%s must be a color", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
