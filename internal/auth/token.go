package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, and tokens
	// whose claims are unusable.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned for well-formed tokens past their expiry.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the validated assertion set carried inside a provider-issued
// token. Metadata may carry optional attributes such as display_name and
// avatar_url.
type Claims struct {
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
	jwt.RegisteredClaims
}

// DisplayName returns the display_name metadata attribute, if present.
func (c *Claims) DisplayName() string {
	return c.metadataString("display_name")
}

// AvatarURL returns the avatar_url metadata attribute, if present.
func (c *Claims) AvatarURL() string {
	return c.metadataString("avatar_url")
}

func (c *Claims) metadataString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	s, _ := c.Metadata[key].(string)
	return s
}

// TokenCodec decodes and verifies provider-issued bearer tokens against a
// shared secret. It performs no network or database access; an instance is
// constructed once at startup and injected wherever tokens are decoded.
type TokenCodec struct {
	secret   string
	issuer   string
	audience string
}

// NewTokenCodec creates a TokenCodec for the given verification secret.
// Issuer and audience are enforced when non-empty.
func NewTokenCodec(secret, issuer, audience string) *TokenCodec {
	return &TokenCodec{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
	}
}

// Decode verifies the token signature and expiry and returns its claims.
// Expired tokens fail with ErrExpiredToken; every other defect fails with
// ErrInvalidToken.
func (c *TokenCodec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	if c.audience != "" {
		opts = append(opts, jwt.WithAudience(c.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return []byte(c.secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}

		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, fmt.Errorf("%w: missing subject or email claim", ErrInvalidToken)
	}

	return claims, nil
}
