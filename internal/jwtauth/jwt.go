// Package jwtauth implements the signed-token codec the authentication gate
// relies on. Verification is pure and stateless: the symmetric key and the
// expected issuer are fixed at construction and no I/O happens per call.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failure kinds. The gate treats all of them as "no principal",
// but they stay distinct for logging and tests.
var (
	ErrMalformed        = errors.New("token is malformed")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrIssuerMismatch   = errors.New("token issuer mismatch")
)

// allowedClockSkew tolerates small clock drift between the token issuer and
// this service when checking expiry.
const allowedClockSkew = time.Second

// Claims is the claim set carried by access tokens. Subject is the player
// identity; Authorities is ordered, first element is the primary role.
type Claims struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with a pre-shared HMAC key.
type Codec struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func New(signingKey, issuer string, ttl time.Duration) *Codec {
	return &Codec{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// Issue builds and signs a token for the given identity. Request-serving
// paths never call this; it exists for the token-issuing collaborator and
// for tests.
func (c *Codec) Issue(identity, username string, roles []string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username:    username,
		Authorities: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(c.signingKey)
}

// Verify parses the token, checks the signature and expiry (with a one
// second leeway), then compares the issuer claim byte for byte against the
// configured issuer.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.signingKey, nil
	}, jwt.WithLeeway(allowedClockSkew))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}
	if !parsed.Valid {
		return nil, ErrMalformed
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrMalformed
	}
	if claims.Issuer != c.issuer {
		return nil, ErrIssuerMismatch
	}

	return claims, nil
}
