package devauth

// Package devauth provides a config-driven AuthProvider for local development.
// It accepts a fixed set of accounts with any non-empty password and issues
// fake tokens, so the whole auth surface works without a real identity
// provider.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

// ErrUnknownUser is returned when no configured account matches.
var ErrUnknownUser = ports.ErrInvalidCredentials

// ErrUnknownToken is returned when a token was not issued by this provider.
var ErrUnknownToken = ports.ErrTokenRejected

// Account is one local development login.
type Account struct {
	ID    string
	Email string
}

// Config controls the dev auth provider behavior.
type Config struct {
	Accounts        []Account
	SessionDuration time.Duration // default 8h when zero
	Clock           util.Clock
}

// Provider implements ports.AuthProvider for local development.
type Provider struct {
	accounts        map[string]Account // keyed by lowercase email
	sessionDuration time.Duration
	clock           util.Clock

	mu        sync.Mutex
	byAccess  map[string]ports.ProviderSession
	byRefresh map[string]ports.ProviderSession
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("dev auth: at least one account is required")
	}
	accounts := make(map[string]Account, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		if a.ID == "" || a.Email == "" {
			return nil, errors.New("dev auth: account ID and email are required")
		}
		accounts[strings.ToLower(a.Email)] = a
	}
	dur := cfg.SessionDuration
	if dur == 0 {
		dur = 8 * time.Hour
	}
	clock := cfg.Clock
	if clock == nil {
		clock = util.RealClock{}
	}
	return &Provider{
		accounts:        accounts,
		sessionDuration: dur,
		clock:           clock,
		byAccess:        make(map[string]ports.ProviderSession),
		byRefresh:       make(map[string]ports.ProviderSession),
	}, nil
}

// SignInWithPassword accepts any non-empty password for a configured account.
func (p *Provider) SignInWithPassword(_ context.Context, creds ports.Credentials) (ports.ProviderSession, error) {
	if creds.Password == "" {
		return ports.ProviderSession{}, errors.New("dev auth: password is required")
	}
	account, ok := p.accounts[strings.ToLower(creds.Email)]
	if !ok {
		return ports.ProviderSession{}, ErrUnknownUser
	}
	return p.issue(account)
}

// SignUp registers a new dev account with a generated ID.
func (p *Provider) SignUp(_ context.Context, creds ports.Credentials) (ports.ProviderUser, error) {
	email := strings.ToLower(creds.Email)
	if email == "" {
		return ports.ProviderUser{}, errors.New("dev auth: email is required")
	}
	if _, exists := p.accounts[email]; exists {
		return ports.ProviderUser{}, errors.New("dev auth: account already exists")
	}
	id, err := randomString(16)
	if err != nil {
		return ports.ProviderUser{}, err
	}
	account := Account{ID: "dev-" + id, Email: creds.Email}

	p.mu.Lock()
	p.accounts[email] = account
	p.mu.Unlock()

	return ports.ProviderUser{ID: account.ID, Email: account.Email}, nil
}

// GetUser resolves an issued access token back to its account.
func (p *Provider) GetUser(_ context.Context, accessToken string) (ports.ProviderUser, error) {
	p.mu.Lock()
	sess, ok := p.byAccess[accessToken]
	p.mu.Unlock()
	if !ok {
		return ports.ProviderUser{}, ErrUnknownToken
	}
	if !p.clock.Now().Before(sess.ExpiresAt) {
		return ports.ProviderUser{}, ErrUnknownToken
	}
	return ports.ProviderUser{ID: sess.UserID, Email: sess.Email}, nil
}

// RefreshSession rotates both tokens and extends expiry.
func (p *Provider) RefreshSession(_ context.Context, refreshToken string) (ports.ProviderSession, error) {
	p.mu.Lock()
	old, ok := p.byRefresh[refreshToken]
	p.mu.Unlock()
	if !ok {
		return ports.ProviderSession{}, ErrUnknownToken
	}

	account, ok := p.accounts[strings.ToLower(old.Email)]
	if !ok {
		return ports.ProviderSession{}, ErrUnknownUser
	}

	p.mu.Lock()
	delete(p.byAccess, old.AccessToken)
	delete(p.byRefresh, old.RefreshToken)
	p.mu.Unlock()

	return p.issue(account)
}

// SignOut revokes the session holding this access token.
func (p *Provider) SignOut(_ context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sess, ok := p.byAccess[accessToken]; ok {
		delete(p.byAccess, sess.AccessToken)
		delete(p.byRefresh, sess.RefreshToken)
	}
	return nil
}

func (p *Provider) issue(account Account) (ports.ProviderSession, error) {
	access, err := randomString(32)
	if err != nil {
		return ports.ProviderSession{}, fmt.Errorf("generate access token: %w", err)
	}
	refresh, err := randomString(32)
	if err != nil {
		return ports.ProviderSession{}, fmt.Errorf("generate refresh token: %w", err)
	}

	now := p.clock.Now()
	sess := ports.ProviderSession{
		UserID:       account.ID,
		Email:        account.Email,
		AccessToken:  "dev-at-" + access,
		RefreshToken: "dev-rt-" + refresh,
		IssuedAt:     now,
		ExpiresAt:    now.Add(p.sessionDuration),
	}

	p.mu.Lock()
	p.byAccess[sess.AccessToken] = sess
	p.byRefresh[sess.RefreshToken] = sess
	p.mu.Unlock()

	return sess, nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	bLen := (n*3 + 3) / 4
	b := make([]byte, bLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	for len(s) < n {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:n], nil
}
