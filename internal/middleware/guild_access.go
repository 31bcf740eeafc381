package middleware

import (
	"context"
	"net/http"

	"github.com/ravenhall/questboard/internal/model"
)

// GuildIDKey is the context key for guild ID
const GuildIDKey contextKey = "guildID"

// GetGuildID extracts the guild ID from context
func GetGuildID(ctx context.Context) string {
	if id, ok := ctx.Value(GuildIDKey).(string); ok {
		return id
	}
	return ""
}

// GuildScope returns a middleware that enforces the token's guild claim
// against the {guildId} path parameter. A token minted without a guild claim
// is valid for any guild; a guild-scoped token is confined to its guild.
// Mismatches return 404 so guild existence does not leak.
func GuildScope() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			guildID := r.PathValue("guildId")
			if guildID == "" {
				model.NewBadRequestError("missing guild ID").WriteJSON(w)
				return
			}

			claims := GetClaims(r.Context())
			if claims == nil {
				model.NewUnauthorizedError("authentication required").WriteJSON(w)
				return
			}
			if claims.GuildID != "" && claims.GuildID != guildID {
				model.NewNotFoundError("guild").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), GuildIDKey, guildID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
