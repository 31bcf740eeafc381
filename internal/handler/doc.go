// Package handler provides HTTP request handlers for the quest board API.
//
// Each handler struct encapsulates the services needed to serve requests for
// one resource (quests, signups, summaries, users, characters). Handlers are
// thin: they decode the wire form, resolve the acting member, call a service,
// and map the result onto the response helpers.
//
// # Response Format
//
//   - WriteData: single resource with optional HATEOAS links
//   - WriteCollection: paginated list of resources
//   - WriteError: RFC 9457 Problem Details error response
//
// # Actors
//
// Authentication identifies the calling integration (the bot or the
// dashboard), not a member. The member an operation is performed on behalf of
// travels in the X-Actor-ID header and is resolved against stored records by
// resolveActor, so callers can never claim roles they do not hold.
//
// Service errors are translated centrally by MapServiceError so every
// endpoint reports the same problem document for the same failure.
package handler
