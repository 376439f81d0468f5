package redis

// Package redis provides the Redis-backed session store. Sessions live under
// a key prefix with a TTL derived from the session expiry, so Redis evicts
// them on its own; Get still re-checks expiry against the injected clock
// because TTL resolution and clock skew leave a small window.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/afyacare/hms/internal/data/cryptoutil"
	domainauth "github.com/afyacare/hms/internal/domain/auth"
	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

const defaultPrefix = "hms:session:"

// ErrNotFound is returned when a session is not found.
var ErrNotFound = ports.ErrSessionNotFound

// SessionStore persists sessions in Redis. Provider tokens are encrypted at
// rest; a Redis dump must not yield usable access or refresh tokens.
type SessionStore struct {
	client    redis.UniversalClient
	prefix    string
	encryptor cryptoutil.Encryptor
	clock     util.Clock
}

// SessionStoreOptions configures NewSessionStore.
type SessionStoreOptions struct {
	Prefix    string
	Encryptor cryptoutil.Encryptor // nil disables token encryption (tests only)
	Clock     util.Clock
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.Encryptor == nil {
		opts.Encryptor = cryptoutil.NoopEncryptor{}
	}
	if opts.Clock == nil {
		opts.Clock = util.RealClock{}
	}
	return &SessionStore{
		client:    client,
		prefix:    opts.Prefix,
		encryptor: opts.Encryptor,
		clock:     opts.Clock,
	}
}

// Save stores the session with a TTL matching its expiry. Already-expired
// sessions are rejected rather than stored.
func (s *SessionStore) Save(ctx context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}

	ttl := sess.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}

	enc := sess
	var err error
	if enc.AccessToken, err = s.encryptor.Encrypt([]byte(sess.AccessToken)); err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	if enc.RefreshToken, err = s.encryptor.Encrypt([]byte(sess.RefreshToken)); err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	data, err := json.Marshal(enc)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.client.Set(ctx, s.prefix+sess.ID, data, ttl).Err()
}

// Get loads a session by ID. Expired sessions are deleted and reported as
// not found.
func (s *SessionStore) Get(ctx context.Context, id string) (domainauth.Session, error) {
	if id == "" {
		return domainauth.Session{}, ErrNotFound
	}

	data, err := s.client.Get(ctx, s.prefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ErrNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if unmarshalErr := json.Unmarshal([]byte(data), &sess); unmarshalErr != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", unmarshalErr)
	}

	access, err := s.encryptor.Decrypt(sess.AccessToken)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("decrypt access token: %w", err)
	}
	refresh, err := s.encryptor.Decrypt(sess.RefreshToken)
	if err != nil {
		return domainauth.Session{}, fmt.Errorf("decrypt refresh token: %w", err)
	}
	sess.AccessToken = string(access)
	sess.RefreshToken = string(refresh)

	if !sess.Valid(s.clock.Now()) {
		if deleteErr := s.Delete(ctx, id); deleteErr != nil {
			return domainauth.Session{}, fmt.Errorf("cleanup expired session: %w", deleteErr)
		}
		return domainauth.Session{}, ErrNotFound
	}

	return sess, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, s.prefix+id).Err()
}
