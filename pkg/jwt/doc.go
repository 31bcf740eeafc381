// Package jwt provides service-token utilities for the Questboard API.
//
// The jwt package wraps github.com/golang-jwt/jwt/v5 for token generation,
// validation, and claims extraction. Tokens authenticate API callers such as
// the Discord bot process or operator tooling; there is no end-user login.
//
// # Token Generation
//
//	service, err := jwt.NewService(jwt.Config{
//	    Secret:         "signing-secret",
//	    Issuer:         "questboard.ravenhall.gg",
//	    ExpirationMins: 60,
//	})
//
//	token, err := service.Sign(jwt.Claims{GuildID: guildID, Role: "service"})
//
// # Token Validation
//
//	claims, err := service.Validate(tokenString)
//	if err != nil {
//	    // Invalid or expired token
//	}
//
// Validation failures map to sentinel errors (ErrTokenExpired,
// ErrInvalidSignature, ErrInvalidToken) so callers can branch without
// inspecting driver error types.
package jwt
