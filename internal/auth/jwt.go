// Package auth validates the bearer tokens that guard the API's
// administrative endpoints. CurbCycle has no user accounts: tokens are
// issued out of band to operators and only verified here.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Predefined token errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// VerifierConfig holds configuration for token verification.
type VerifierConfig struct {
	// SigningKey is the secret key tokens are signed with.
	SigningKey string

	// Issuer is the expected issuer claim (e.g., "https://api.curbcycle.io").
	Issuer string

	// Audience is the expected audience claim (e.g., "curbcycle-api").
	Audience string
}

// TokenVerifier validates HS256 bearer tokens.
type TokenVerifier struct {
	signingKey []byte
	issuer     string
	audience   string
}

// NewTokenVerifier creates a new token verifier.
func NewTokenVerifier(cfg VerifierConfig) *TokenVerifier {
	return &TokenVerifier{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

// Verify validates the token's signature, expiry, issuer and audience, and
// returns the subject claim.
func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return "", ErrInvalidToken
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// IssueToken signs a token for the given subject. The API itself only
// verifies tokens; this exists for operator tooling and tests.
func IssueToken(cfg VerifierConfig, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}
