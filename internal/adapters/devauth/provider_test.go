package devauth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/util"
)

func newTestProvider(t *testing.T, clock util.Clock) *Provider {
	t.Helper()
	p, err := NewProvider(Config{
		Accounts: []Account{{ID: "dev-doc", Email: "doctor@dev.local"}},
		Clock:    clock,
	})
	require.NoError(t, err)
	return p
}

func TestSignInIssuesSession(t *testing.T) {
	clock := util.NewFixedClock(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC))
	p := newTestProvider(t, clock)
	ctx := context.Background()

	sess, err := p.SignInWithPassword(ctx, ports.Credentials{Email: "Doctor@dev.local", Password: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "dev-doc", sess.UserID)
	assert.Equal(t, clock.Now(), sess.IssuedAt)
	assert.Equal(t, clock.Now().Add(8*time.Hour), sess.ExpiresAt)
	assert.NotEmpty(t, sess.AccessToken)
	assert.NotEmpty(t, sess.RefreshToken)

	user, err := p.GetUser(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "dev-doc", user.ID)
}

func TestSignInRejectsUnknownUserAndEmptyPassword(t *testing.T) {
	p := newTestProvider(t, nil)
	ctx := context.Background()

	_, err := p.SignInWithPassword(ctx, ports.Credentials{Email: "nobody@dev.local", Password: "x"})
	assert.ErrorIs(t, err, ErrUnknownUser)

	_, err = p.SignInWithPassword(ctx, ports.Credentials{Email: "doctor@dev.local"})
	assert.Error(t, err)
}

func TestRefreshRotatesTokensAndExtendsExpiry(t *testing.T) {
	clock := util.NewFixedClock(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC))
	p := newTestProvider(t, clock)
	ctx := context.Background()

	first, err := p.SignInWithPassword(ctx, ports.Credentials{Email: "doctor@dev.local", Password: "x"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	second, err := p.RefreshSession(ctx, first.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, first.AccessToken, second.AccessToken)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))

	// The old tokens are revoked.
	_, err = p.GetUser(ctx, first.AccessToken)
	assert.ErrorIs(t, err, ErrUnknownToken)
	_, err = p.RefreshSession(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestGetUserRejectsExpiredToken(t *testing.T) {
	clock := util.NewFixedClock(time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC))
	p := newTestProvider(t, clock)
	ctx := context.Background()

	sess, err := p.SignInWithPassword(ctx, ports.Credentials{Email: "doctor@dev.local", Password: "x"})
	require.NoError(t, err)

	clock.Advance(9 * time.Hour)
	_, err = p.GetUser(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestSignOutRevokesTokens(t *testing.T) {
	p := newTestProvider(t, nil)
	ctx := context.Background()

	sess, err := p.SignInWithPassword(ctx, ports.Credentials{Email: "doctor@dev.local", Password: "x"})
	require.NoError(t, err)

	require.NoError(t, p.SignOut(ctx, sess.AccessToken))

	_, err = p.GetUser(ctx, sess.AccessToken)
	assert.ErrorIs(t, err, ErrUnknownToken)

	// Signing out an unknown token is a no-op.
	assert.NoError(t, p.SignOut(ctx, "missing"))
}

func TestSignUpCreatesAccount(t *testing.T) {
	p := newTestProvider(t, nil)
	ctx := context.Background()

	user, err := p.SignUp(ctx, ports.Credentials{Email: "patient@dev.local", Password: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)

	_, err = p.SignInWithPassword(ctx, ports.Credentials{Email: "patient@dev.local", Password: "x"})
	assert.NoError(t, err)

	_, err = p.SignUp(ctx, ports.Credentials{Email: "patient@dev.local", Password: "x"})
	assert.Error(t, err)
}
