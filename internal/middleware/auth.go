package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ravenhall/questboard/internal/model"
	"github.com/ravenhall/questboard/pkg/jwt"
)

// TokenValidator defines the interface for service-token validation
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// ClaimsKey is the context key for validated token claims
const ClaimsKey contextKey = "claims"

// Auth returns a middleware that validates bearer service tokens. Tokens
// identify the calling integration (the bot, a dashboard), not an end user;
// the acting user travels in the request body and is authorized by the
// service layer against its stored roles.
func Auth(validator TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				model.NewUnauthorizedError("missing authorization header").WriteJSON(w)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				model.NewUnauthorizedError("invalid authorization header format").WriteJSON(w)
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				switch err {
				case jwt.ErrTokenExpired:
					model.NewUnauthorizedError("token expired").WriteJSON(w)
				case jwt.ErrInvalidSignature:
					model.NewUnauthorizedError("invalid token signature").WriteJSON(w)
				default:
					model.NewUnauthorizedError("invalid token").WriteJSON(w)
				}
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			ctx = context.WithValue(ctx, CallerIDKey, claims.Subject)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts the token claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}

// GetCallerID extracts the token subject from context
func GetCallerID(ctx context.Context) string {
	if id, ok := ctx.Value(CallerIDKey).(string); ok {
		return id
	}
	return ""
}
