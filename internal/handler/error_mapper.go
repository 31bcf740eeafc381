package handler

import (
	"errors"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error messages across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// Cooldown carries the remaining wait, surface it with Retry-After info
	var cooldown *model.CooldownError
	if errors.As(err, &cooldown) {
		return model.NewCooldownError(cooldown.Remaining)
	}

	switch {
	// ===== Malformed Requests → 400 =====
	case errors.Is(err, ident.ErrMalformed):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, service.ErrAmbiguousFilter):
		return model.NewBadRequestError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotAPlayer),
		errors.Is(err, service.ErrNotAReferee),
		errors.Is(err, service.ErrNotQuestReferee),
		errors.Is(err, service.ErrNotAdmin),
		errors.Is(err, service.ErrNotSignupOwner),
		errors.Is(err, service.ErrNotSummaryAuthor),
		errors.Is(err, service.ErrCharacterNotOwned):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrQuestNotFound):
		return model.NewNotFoundError("quest")
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrCharacterNotFound):
		return model.NewNotFoundError("character")
	case errors.Is(err, service.ErrSummaryNotFound):
		return model.NewNotFoundError("summary")
	case errors.Is(err, model.ErrSignupNotFound):
		return model.NewNotFoundError("signup")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, model.ErrDuplicateSignup):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrConflict):
		return model.NewConflictError(err.Error())

	// ===== Validation and State Errors → 422 =====
	case errors.Is(err, model.ErrInvalidState),
		errors.Is(err, service.ErrQuestNotCompleted):
		return model.NewValidationError(err.Error())
	case errors.Is(err, model.ErrInvalidQuest),
		errors.Is(err, model.ErrInvalidSummary),
		errors.Is(err, model.ErrInvalidCharacter),
		errors.Is(err, model.ErrRefereeRequiresPlayer):
		return model.NewValidationError(err.Error())

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}
