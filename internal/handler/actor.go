package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/ravenhall/questboard/internal/ident"
	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/internal/service"
)

// ActorHeader names the header that carries the acting user's identifier.
// The bearer token authenticates the calling integration; this header says
// which guild member the call is performed on behalf of.
const ActorHeader = "X-Actor-ID"

// ActorDirectory resolves acting users to their stored role sets
type ActorDirectory interface {
	Get(ctx context.Context, guildID string, userID ident.ID) (*model.User, error)
}

// resolveActor builds the service actor from the X-Actor-ID header. Roles
// come from storage, never from the request, so a caller cannot claim roles
// its user does not hold.
func resolveActor(ctx context.Context, users ActorDirectory, guildID string, r *http.Request) (service.Actor, *model.ProblemDetails) {
	raw := r.Header.Get(ActorHeader)
	if raw == "" {
		return service.Actor{}, model.NewUnauthorizedError("missing " + ActorHeader + " header")
	}

	actorID, err := ident.Parse(ident.PrefixUser, raw)
	if err != nil {
		return service.Actor{}, model.NewBadRequestError("malformed actor ID")
	}

	user, err := users.Get(ctx, guildID, actorID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return service.Actor{}, model.NewUnauthorizedError("unknown acting user")
		}
		return service.Actor{}, MapServiceError(err)
	}

	return service.Actor{UserID: user.ID, Roles: user.Roles}, nil
}

// parsePathID parses a path parameter as an identifier with the given prefix
func parsePathID(r *http.Request, param, prefix string) (ident.ID, *model.ProblemDetails) {
	raw := r.PathValue(param)
	if raw == "" {
		return ident.ID{}, model.NewBadRequestError(param + " required")
	}
	id, err := ident.Parse(prefix, raw)
	if err != nil {
		return ident.ID{}, model.NewBadRequestError("malformed " + param)
	}
	return id, nil
}
