package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenExpiry is the bearer token lifetime when none is configured.
const DefaultTokenExpiry = 8 * time.Hour

var (
	ErrMissingSecret = errors.New("jwt signing secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
)

// Claims carried by every bearer token.
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Claim is a single claim in the shape returned by whoami.
type Claim struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// List flattens the claims for introspection.
func (c *Claims) List() []Claim {
	list := []Claim{
		{Type: "name", Value: c.Name},
		{Type: "email", Value: c.Email},
	}
	if c.ID != "" {
		list = append(list, Claim{Type: "jti", Value: c.ID})
	}
	if c.IssuedAt != nil {
		list = append(list, Claim{Type: "iat", Value: fmt.Sprint(c.IssuedAt.Unix())})
	}
	if c.ExpiresAt != nil {
		list = append(list, Claim{Type: "exp", Value: fmt.Sprint(c.ExpiresAt.Unix())})
	}
	return list
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	signingKey []byte
	expiry     time.Duration
	now        func() time.Time
}

// NewTokenIssuer fails when secret is empty; there is no fallback key.
func NewTokenIssuer(secret string, expiry time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenIssuer{
		signingKey: []byte(secret),
		expiry:     expiry,
		now:        time.Now,
	}, nil
}

// Issue creates a signed token for the user.
func (t *TokenIssuer) Issue(name, email string) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Name:  name,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(t.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate verifies signature and expiry. Issuer and audience are not checked.
func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
