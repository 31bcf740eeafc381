package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Domain errors raised by entity state-transition methods. Services wrap
// these with context; handlers map them to ProblemDetails. Check with
// errors.Is.
var (
	// ErrInvalidState indicates an operation that is not legal from the
	// entity's current lifecycle status.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrDuplicateSignup indicates a (user, character) pair that already
	// applied to the quest. Expected user behavior, not a bug.
	ErrDuplicateSignup = errors.New("duplicate signup")

	// ErrSignupNotFound indicates the referenced signup does not exist.
	ErrSignupNotFound = errors.New("signup not found")

	// ErrInvalidQuest indicates a quest failing creation-time validation.
	ErrInvalidQuest = errors.New("invalid quest")

	// ErrInvalidSummary indicates a summary failing validation.
	ErrInvalidSummary = errors.New("invalid summary")

	// ErrInvalidCharacter indicates a character failing validation.
	ErrInvalidCharacter = errors.New("invalid character")

	// ErrRefereeRequiresPlayer indicates a REFEREE grant on a user who is
	// not yet a PLAYER.
	ErrRefereeRequiresPlayer = errors.New("referee role requires player role first")
)

// CooldownError is returned when a nudge lands inside the cooldown window.
// Remaining is how long the caller has to wait.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("nudge on cooldown for another %s", e.Remaining.Round(time.Minute))
}

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003

	// Authorization errors (2xxx)
	ErrCodeForbidden ErrorCode = 2001

	// Resource errors (3xxx)
	ErrCodeNotFound ErrorCode = 3001
	ErrCodeConflict ErrorCode = 3002

	// Validation errors (4xxx)
	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002
	ErrCodeCooldown     ErrorCode = 4003
	ErrCodeRateLimit    ErrorCode = 4004

	// Internal errors (5xxx)
	ErrCodeInternal ErrorCode = 5001
	ErrCodeStorage  ErrorCode = 5002
)

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extension fields
	Code              ErrorCode `json:"code,omitempty"`
	RetryAfterSecs    *int64    `json:"retry_after_secs,omitempty"`
	CooldownRemaining string    `json:"cooldown_remaining,omitempty"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// Common error constructors

func NewUnauthorizedError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/unauthorized",
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
		Detail: detail,
		Code:   ErrCodeUnauthorized,
	}
}

func NewForbiddenError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/forbidden",
		Title:  "Forbidden",
		Status: http.StatusForbidden,
		Detail: detail,
		Code:   ErrCodeForbidden,
	}
}

func NewNotFoundError(resource string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/not-found",
		Title:  "Not Found",
		Status: http.StatusNotFound,
		Detail: fmt.Sprintf("%s not found", resource),
		Code:   ErrCodeNotFound,
	}
}

func NewValidationError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/validation",
		Title:  "Validation Error",
		Status: http.StatusUnprocessableEntity,
		Detail: detail,
		Code:   ErrCodeValidation,
	}
}

func NewConflictError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/conflict",
		Title:  "Conflict",
		Status: http.StatusConflict,
		Detail: detail,
		Code:   ErrCodeConflict,
	}
}

// NewCooldownError surfaces a nudge cooldown with the remaining wait, both
// machine-readable and rounded for humans.
func NewCooldownError(remaining time.Duration) *ProblemDetails {
	secs := int64(remaining.Seconds())
	return &ProblemDetails{
		Type:              "https://questboard.ravenhall.gg/errors/cooldown",
		Title:             "Cooldown Active",
		Status:            http.StatusTooManyRequests,
		Detail:            fmt.Sprintf("Nudge on cooldown. Try again in %s", remaining.Round(time.Minute)),
		Code:              ErrCodeCooldown,
		RetryAfterSecs:    &secs,
		CooldownRemaining: remaining.Round(time.Second).String(),
	}
}

func NewRateLimitError(retryAfterSecs int) *ProblemDetails {
	secs := int64(retryAfterSecs)
	return &ProblemDetails{
		Type:           "https://questboard.ravenhall.gg/errors/rate-limit",
		Title:          "Too Many Requests",
		Status:         http.StatusTooManyRequests,
		Detail:         fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", retryAfterSecs),
		Code:           ErrCodeRateLimit,
		RetryAfterSecs: &secs,
	}
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/internal",
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
		Detail: detail,
		Code:   ErrCodeInternal,
	}
}

func NewBadRequestError(detail string) *ProblemDetails {
	return &ProblemDetails{
		Type:   "https://questboard.ravenhall.gg/errors/bad-request",
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
		Detail: detail,
		Code:   ErrCodeInvalidInput,
	}
}
