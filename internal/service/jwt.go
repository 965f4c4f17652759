package service

import (
	"errors"
	"strings"
	"time"

	"anomalyse_dashboard/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenReader extracts the analyst record from a backend-issued bearer token.
// With a secret the HS256 signature is verified; without one the claims are
// only decoded, since the backend stays the authority on every request.
type TokenReader struct {
	secret []byte
	now    func() time.Time
}

func NewTokenReader(secret string) *TokenReader {
	var s []byte
	if secret != "" {
		s = []byte(secret)
	}
	return &TokenReader{secret: s, now: time.Now}
}

// Analyst returns the user encoded in token. Opaque (non-JWT) tokens such as
// the backend's development token yield a record without an email.
func (r *TokenReader) Analyst(token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	if strings.Count(token, ".") != 2 {
		return &domain.User{}, nil
	}

	claims := jwt.MapClaims{}
	if r.secret != nil {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return r.secret, nil
		}, jwt.WithTimeFunc(r.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, ErrTokenExpired
			}
			return nil, ErrInvalidToken
		}
		if !parsed.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, ErrInvalidToken
		}
	}

	user := &domain.User{}
	if sub, err := claims.GetSubject(); err == nil {
		user.Email = sub
	}
	if role, ok := claims["role"].(string); ok {
		user.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		user.ExpiresAt = exp.Time
		if r.secret == nil && user.Expired(r.now()) {
			return nil, ErrTokenExpired
		}
	}
	return user, nil
}
