package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Lookup Errors =====
var (
	ErrQuestNotFound     = errors.New("quest not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrSummaryNotFound   = errors.New("summary not found")
)

// ===== Authorization Errors =====
var (
	ErrNotAPlayer        = errors.New("player role required")
	ErrNotAReferee       = errors.New("referee role required")
	ErrNotQuestReferee   = errors.New("not the referee of this quest")
	ErrNotAdmin          = errors.New("admin role required")
	ErrNotSignupOwner    = errors.New("cannot modify another user's signup")
	ErrNotSummaryAuthor  = errors.New("not the author of this summary")
	ErrCharacterNotOwned = errors.New("character belongs to another user")
)

// ===== Concurrency Errors =====
var (
	// ErrConflict indicates the entity changed between read and write;
	// the caller should re-read and retry.
	ErrConflict = errors.New("conflicting update, retry")
)

// ===== Lifecycle Errors =====
var (
	ErrQuestNotCompleted = errors.New("quest is not completed")
)

// ===== Listing Errors =====
var (
	// ErrAmbiguousFilter indicates a list request combined filter
	// dimensions that are mutually exclusive.
	ErrAmbiguousFilter = errors.New("list filters are mutually exclusive")
)
