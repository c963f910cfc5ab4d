package dashboard

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
)

const (
	sessionIssuer  = "trend-dashboard"
	sessionSubject = "dashboard"

	// DefaultSessionTTL applies when no TTL is configured.
	DefaultSessionTTL = 12 * time.Hour
)

// SessionService issues and verifies signed session tokens. The dashboard has a single
// shared password, so a token only proves that the password was entered.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a session service signing with secret.
func NewSessionService(secret string, ttl time.Duration) *SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &SessionService{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a new session token and its expiry.
func (s *SessionService) Issue() (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   sessionSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}

	return token, expiresAt, nil
}

// Verify checks signature, issuer and expiry of token.
func (s *SessionService) Verify(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, coreerrors.ErrSessionExpired
		}

		return nil, fmt.Errorf("%w: %w", coreerrors.ErrSessionInvalid, err)
	}

	return claims, nil
}

// PasswordMatches compares in constant time.
func PasswordMatches(want, got string) bool {
	a := sha256.Sum256([]byte(want))
	b := sha256.Sum256([]byte(got))

	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
