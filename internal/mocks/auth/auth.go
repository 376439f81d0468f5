package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*FakePasswordProvider)(nil)
	_ ports.SSOProvider  = (*FakeSSOProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.ProfileStore = (*MemoryProfileStore)(nil)
)

// FakeAccount is one account known to the FakePasswordProvider.
type FakeAccount struct {
	ID       string
	Email    string
	Password string
}

// FakePasswordProvider simulates a password IdP with deterministic tokens.
// Individual methods can be overridden with the *Func fields.
type FakePasswordProvider struct {
	SignInFunc  func(ctx context.Context, creds ports.Credentials) (ports.ProviderSession, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (ports.ProviderSession, error)
	SignOutFunc func(ctx context.Context, accessToken string) error

	Accounts map[string]FakeAccount // keyed by email
	TokenTTL time.Duration
	Now      func() time.Time

	mu           sync.Mutex
	issueCount   int
	issued       map[string]ports.ProviderUser // by access token
	SignOutCalls []string
}

// NewFakePasswordProvider creates a provider with one default account.
func NewFakePasswordProvider() *FakePasswordProvider {
	return &FakePasswordProvider{
		Accounts: map[string]FakeAccount{
			"doctor@hospital.test": {ID: "user-doctor", Email: "doctor@hospital.test", Password: "correct-horse"},
		},
		TokenTTL: time.Hour,
		Now:      time.Now,
	}
}

func (f *FakePasswordProvider) issue(account FakeAccount) ports.ProviderSession {
	f.mu.Lock()
	f.issueCount++
	n := f.issueCount
	f.mu.Unlock()

	now := f.Now()
	sess := ports.ProviderSession{
		UserID:       account.ID,
		Email:        account.Email,
		AccessToken:  fmt.Sprintf("fake-at-%s-%d", account.ID, n),
		RefreshToken: fmt.Sprintf("fake-rt-%s-%d", account.ID, n),
		IssuedAt:     now,
		ExpiresAt:    now.Add(f.TokenTTL),
	}

	f.mu.Lock()
	if f.issued == nil {
		f.issued = make(map[string]ports.ProviderUser)
	}
	f.issued[sess.AccessToken] = ports.ProviderUser{ID: account.ID, Email: account.Email}
	f.mu.Unlock()

	return sess
}

func (f *FakePasswordProvider) SignInWithPassword(ctx context.Context, creds ports.Credentials) (ports.ProviderSession, error) {
	if f.SignInFunc != nil {
		return f.SignInFunc(ctx, creds)
	}
	account, ok := f.Accounts[creds.Email]
	if !ok || account.Password != creds.Password {
		return ports.ProviderSession{}, ports.ErrInvalidCredentials
	}
	return f.issue(account), nil
}

func (f *FakePasswordProvider) SignUp(_ context.Context, creds ports.Credentials) (ports.ProviderUser, error) {
	if _, exists := f.Accounts[creds.Email]; exists {
		return ports.ProviderUser{}, errors.New("account already exists")
	}
	account := FakeAccount{
		ID:       "user-" + creds.Email,
		Email:    creds.Email,
		Password: creds.Password,
	}
	f.mu.Lock()
	f.Accounts[creds.Email] = account
	f.mu.Unlock()
	return ports.ProviderUser{ID: account.ID, Email: account.Email}, nil
}

func (f *FakePasswordProvider) GetUser(_ context.Context, accessToken string) (ports.ProviderUser, error) {
	f.mu.Lock()
	user, ok := f.issued[accessToken]
	f.mu.Unlock()
	if !ok {
		return ports.ProviderUser{}, ports.ErrTokenRejected
	}
	return user, nil
}

func (f *FakePasswordProvider) RefreshSession(ctx context.Context, refreshToken string) (ports.ProviderSession, error) {
	if f.RefreshFunc != nil {
		return f.RefreshFunc(ctx, refreshToken)
	}
	// Map the refresh token back to its account by the embedded user ID.
	for _, account := range f.Accounts {
		if refreshToken == "" {
			break
		}
		prefix := "fake-rt-" + account.ID + "-"
		if len(refreshToken) > len(prefix) && refreshToken[:len(prefix)] == prefix {
			return f.issue(account), nil
		}
	}
	return ports.ProviderSession{}, ports.ErrTokenRejected
}

func (f *FakePasswordProvider) SignOut(ctx context.Context, accessToken string) error {
	f.mu.Lock()
	f.SignOutCalls = append(f.SignOutCalls, accessToken)
	f.mu.Unlock()
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx, accessToken)
	}
	return nil
}

// FakeSSOProvider simulates an SSO IdP with deterministic state/nonce values.
type FakeSSOProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	Identity domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewFakeSSOProvider creates a provider returning the given identity.
func NewFakeSSOProvider(identity domainauth.Identity) *FakeSSOProvider {
	return &FakeSSOProvider{Identity: identity}
}

func (f *FakeSSOProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if f.BeginFunc != nil {
		return f.BeginFunc(ctx, in)
	}
	f.mu.Lock()
	f.callCount++
	n := f.callCount
	f.mu.Unlock()
	return "https://fake-idp/auth", fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (f *FakeSSOProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if f.ExchangeFunc != nil {
		return f.ExchangeFunc(ctx, in)
	}
	identity := f.Identity
	if identity.ExpiresAt.IsZero() {
		identity.ExpiresAt = time.Now().Add(time.Hour)
	}
	return identity, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
// Individual methods can be overridden with the *Func fields.
type MemorySessionStore struct {
	SaveFunc   func(ctx context.Context, sess domainauth.Session) error
	GetFunc    func(ctx context.Context, id string) (domainauth.Session, error)
	DeleteFunc func(ctx context.Context, id string) error

	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, sess)
	}
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if id == "" || !ok {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many sessions are stored.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MemoryProfileStore is an in-memory profile store for unit tests.
type MemoryProfileStore struct {
	GetByIDFunc func(ctx context.Context, id string) (domainauth.Principal, error)

	mu       sync.Mutex
	profiles map[string]domainauth.Principal
}

// NewMemoryProfileStore creates a profile store seeded with the given profiles.
func NewMemoryProfileStore(profiles ...domainauth.Principal) *MemoryProfileStore {
	m := &MemoryProfileStore{profiles: make(map[string]domainauth.Principal)}
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *MemoryProfileStore) GetByID(ctx context.Context, id string) (domainauth.Principal, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return domainauth.Principal{}, ports.ErrProfileNotFound
	}
	return p, nil
}

func (m *MemoryProfileStore) GetByEmail(_ context.Context, email string) (domainauth.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if p.Email == email {
			return p, nil
		}
	}
	return domainauth.Principal{}, ports.ErrProfileNotFound
}

func (m *MemoryProfileStore) Create(_ context.Context, p domainauth.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[p.ID]; exists {
		return errors.New("profile already exists")
	}
	m.profiles[p.ID] = p
	return nil
}

func (m *MemoryProfileStore) UpdateStatus(_ context.Context, id string, status domainauth.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok || p.DeletedAt != nil {
		return ports.ErrProfileNotFound
	}
	p.Status = status
	m.profiles[id] = p
	return nil
}

func (m *MemoryProfileStore) SoftDelete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok || p.DeletedAt != nil {
		return ports.ErrProfileNotFound
	}
	now := time.Now()
	p.DeletedAt = &now
	m.profiles[id] = p
	return nil
}

func (m *MemoryProfileStore) List(_ context.Context, opts ports.ProfilesListOptions) ([]domainauth.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domainauth.Principal
	for _, p := range m.profiles {
		if opts.Role != nil && p.Role != *opts.Role {
			continue
		}
		if opts.Status != nil && p.Status != *opts.Status {
			continue
		}
		if !opts.IncludeDeleted && p.DeletedAt != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *MemoryProfileStore) CountByRole(_ context.Context, role domainauth.Role) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.profiles {
		if p.Role == role && p.DeletedAt == nil {
			count++
		}
	}
	return count, nil
}

// MemoryAuditRepo collects audit entries in memory. It implements
// core.AuditRepository.
type MemoryAuditRepo struct {
	RecordErr error

	mu      sync.Mutex
	entries []model.AuditEntry
}

// NewMemoryAuditRepo creates an empty audit repo.
func NewMemoryAuditRepo() *MemoryAuditRepo {
	return &MemoryAuditRepo{}
}

func (m *MemoryAuditRepo) Record(_ context.Context, entry model.AuditEntry) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return nil
}

func (m *MemoryAuditRepo) ListByEntity(_ context.Context, entity, entityID string, limit int) ([]model.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AuditEntry
	for i := len(m.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := m.entries[i]
		if e.Entity == entity && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Entries returns a copy of everything recorded.
func (m *MemoryAuditRepo) Entries() []model.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AuditEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Actions returns the recorded action names in order.
func (m *MemoryAuditRepo) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}
