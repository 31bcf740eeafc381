package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// Claims represents service-token claims. Tokens identify an API caller
// (the bot, a dashboard, an operator tool), not an end user.
type Claims struct {
	GuildID string `json:"guild_id,omitempty"`
	Role    string `json:"role,omitempty"` // service, admin

	gojwt.RegisteredClaims
}

// IsAdmin returns true if the claims indicate admin role
func (c *Claims) IsAdmin() bool {
	return c.Role == "admin"
}

// Service handles token signing and validation
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// Config holds JWT service configuration
type Config struct {
	Secret         string
	Issuer         string
	ExpirationMins int
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: signing secret is required", ErrInvalidKey)
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: time.Duration(cfg.ExpirationMins) * time.Minute,
	}, nil
}

// Sign creates a signed token. Registered time claims are stamped here;
// a caller-provided expiry is kept if set.
func (s *Service) Sign(claims Claims) (string, error) {
	now := time.Now()

	claims.Issuer = s.issuer
	claims.IssuedAt = gojwt.NewNumericDate(now)
	claims.NotBefore = gojwt.NewNumericDate(now)
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = gojwt.NewNumericDate(now.Add(s.expiration))
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign: %w", err)
	}
	return signed, nil
}

// Validate validates a token and returns the claims
func (s *Service) Validate(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := gojwt.ParseWithClaims(tokenString, &claims,
		func(t *gojwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(s.issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, gojwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, gojwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		case errors.Is(err, gojwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}
	return &claims, nil
}

// GetExpiration returns the token expiration duration
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}
