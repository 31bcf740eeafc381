// Package service implements the business logic layer for the Questboard API.
//
// The service package contains all domain orchestration: authorization
// against the actor's roles, identifier generation, lifecycle transitions,
// and domain event emission. Services are the abstraction between transport
// (HTTP handlers, the Discord bot) and data access.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods take the guild ID and an Actor resolved by the caller
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Repository Interfaces
//
// Services define their own repository interfaces, allowing:
//
//   - Easy mocking for unit tests
//   - Decoupling from specific database implementations
//   - Clear contracts for data access requirements
//
// # Concurrency
//
// Quest writes are conditioned on the lifecycle status the quest was read
// at. When a concurrent transition wins, the service returns ErrConflict and
// the caller re-reads and retries; stale state is never written over newer
// state.
//
// # Error Handling
//
// Services return domain-specific errors defined as package-level variables:
//
//	var (
//	    ErrQuestNotFound   = errors.New("quest not found")
//	    ErrNotQuestReferee = errors.New("not the referee of this quest")
//	)
package service
