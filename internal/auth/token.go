package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or
// claim validation. Callers translate it into a 401 with a Bearer challenge.
var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer creates and validates signed bearer tokens.
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer for the given HMAC algorithm ("HS256" by
// convention), signing secret and token lifetime.
func NewTokenIssuer(secret, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	return &TokenIssuer{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// Issue creates a token whose subject is the given username, issued now and
// expiring after the configured lifetime.
func (t *TokenIssuer) Issue(username string) (string, error) {
	issuedAt := time.Now().UTC().Truncate(time.Microsecond)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.ttl)),
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.secret)
}

// Parse validates the token's signature (restricted to the configured
// algorithm), its expiry, and the presence of a subject claim, returning the
// subject username.
func (t *TokenIssuer) Parse(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims,
		func(token *jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
