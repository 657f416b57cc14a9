package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimSubject is the claim key carrying the account email a token was
// issued for. TokenService writes it and IdentityResolver reads it; the
// shared constant keeps that contract explicit.
const ClaimSubject = "sub"

const claimExpiry = "exp"

// TokenService signs and verifies time-limited bearer tokens. Secret,
// signing algorithm and lifetime are fixed per process.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService constructs a TokenService. Unrecognized algorithm names
// fall back to HS256.
func NewTokenService(secret, algorithm string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		method: signingMethod(algorithm),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs the given claims together with an expiry of now plus the
// configured lifetime and returns the compact token string.
func (s *TokenService) Issue(claims map[string]any) (string, error) {
	merged := make(jwt.MapClaims, len(claims)+1)
	for key, value := range claims {
		merged[key] = value
	}
	merged[claimExpiry] = jwt.NewNumericDate(s.now().Add(s.ttl))

	token := jwt.NewWithClaims(s.method, merged)
	return token.SignedString(s.secret)
}

// Verify parses and validates a compact token string and returns its full
// claim set, expiry included. Every failure mode — empty input, malformed
// token, wrong signature, expiry at or past now, or a payload that is
// empty once the expiry claim is removed — yields the same
// ErrUnauthorized, so callers cannot be used as a validity oracle.
func (s *TokenService) Verify(tokenString string) (map[string]any, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	if len(claims) < 2 {
		// A token carrying nothing but its own expiry identifies nobody.
		return nil, ErrUnauthorized
	}

	return claims, nil
}

func signingMethod(name string) jwt.SigningMethod {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}
