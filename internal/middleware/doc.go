// Package middleware provides HTTP middleware for the Questboard API.
//
// The middleware package contains reusable middleware components for
// service-token authentication, guild scoping, rate limiting, and request
// processing.
//
// # Available Middleware
//
// Core middleware components:
//
//   - Auth: bearer service-token validation (the bot and other integrations)
//   - GuildScope: confines guild-scoped tokens to their {guildId} path segment
//   - RateLimit: token-bucket limiting per caller
//   - Idempotency: replay protection for retried POST/PATCH requests
//   - RequestID, Logger, Recovery, CORS, Compress: request plumbing
//
// # Composition
//
// Middleware is composed with Chain:
//
//	handler := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.Recovery,
//	    middleware.Auth(validator),
//	)
//
// # Context Values
//
// Middleware sets context values accessible via helper functions:
//
//   - GetClaims(ctx): validated service-token claims
//   - GetCallerID(ctx): token subject (which integration is calling)
//   - GetGuildID(ctx): guild ID from the request path
//   - GetRequestID(ctx): unique request identifier
package middleware
