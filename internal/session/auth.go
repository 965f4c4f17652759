package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"anomalyse_dashboard/internal/domain"
	"anomalyse_dashboard/internal/logger"
)

var ErrNotLoggedIn = errors.New("not logged in")

// AnalystReader decodes the analyst record carried by a bearer token.
type AnalystReader interface {
	Analyst(token string) (*domain.User, error)
}

// Auth owns the token and user keys of a Store: it writes them on login and
// tears them down when the backend rejects the session.
type Auth struct {
	store  Store
	reader AnalystReader
}

func NewAuth(store Store, reader AnalystReader) *Auth {
	return &Auth{store: store, reader: reader}
}

// Store exposes the underlying store so the gateway can read the token.
func (a *Auth) Store() Store {
	return a.store
}

// Login persists token and the analyst record decoded from it. When the token
// carries no subject, fallbackEmail is recorded instead.
func (a *Auth) Login(ctx context.Context, token, fallbackEmail string) (*domain.User, error) {
	user, err := a.reader.Analyst(token)
	if err != nil {
		return nil, fmt.Errorf("read token claims: %w", err)
	}
	if user.Email == "" {
		user.Email = fallbackEmail
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := a.store.Set(ctx, KeyToken, token); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}
	if err := a.store.Set(ctx, KeyUser, string(raw)); err != nil {
		return nil, fmt.Errorf("store user: %w", err)
	}
	return user, nil
}

// Token returns the stored bearer token, or "" when there is none.
func (a *Auth) Token(ctx context.Context) (string, error) {
	tok, _, err := a.store.Get(ctx, KeyToken)
	return tok, err
}

// CurrentUser returns the stored analyst record.
func (a *Auth) CurrentUser(ctx context.Context) (*domain.User, error) {
	raw, ok, err := a.store.Get(ctx, KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, ErrNotLoggedIn
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &user, nil
}

// Teardown forgets the token and the user record. It is called on logout and
// whenever the backend answers 401.
func (a *Auth) Teardown(ctx context.Context) {
	if err := a.store.Clear(ctx, KeyToken); err != nil {
		logger.Warn("failed to clear session token", "error", err)
	}
	if err := a.store.Clear(ctx, KeyUser); err != nil {
		logger.Warn("failed to clear session user", "error", err)
	}
}
