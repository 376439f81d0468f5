package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
	mockauth "github.com/afyacare/hms/internal/mocks/auth"
	"github.com/afyacare/hms/internal/ports"
	"github.com/afyacare/hms/internal/service"
	"github.com/afyacare/hms/internal/testutil"
	"github.com/afyacare/hms/internal/util"
)

type authFixture struct {
	svc      *service.AuthService
	provider *mockauth.FakePasswordProvider
	sessions *mockauth.MemorySessionStore
	profiles *mockauth.MemoryProfileStore
	audit    *mockauth.MemoryAuditRepo
	clock    *util.FixedClock
}

func newAuthFixture(t *testing.T, profiles ...domainauth.Principal) *authFixture {
	t.Helper()

	clock := util.NewFixedClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	provider := mockauth.NewFakePasswordProvider()
	provider.Now = clock.Now

	store := mockauth.NewMemoryProfileStore(profiles...)
	sessions := mockauth.NewMemorySessionStore()
	audit := mockauth.NewMemoryAuditRepo()

	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
		Profiles: store,
		Audit:    service.NewAuditService(audit, testutil.DiscardLogger()),
		Clock:    clock,
		Logger:   testutil.DiscardLogger(),
	})

	return &authFixture{
		svc:      svc,
		provider: provider,
		sessions: sessions,
		profiles: store,
		audit:    audit,
		clock:    clock,
	}
}

func activeDoctor() domainauth.Principal {
	return domainauth.Principal{
		ID:       "user-doctor",
		FullName: "Dr. Amina Yusuf",
		Email:    "doctor@hospital.test",
		Role:     domainauth.RoleDoctor,
		Status:   domainauth.StatusActive,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("success saves session and records audit", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())

		result, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		assert.NotEmpty(t, result.Session.ID)
		assert.Equal(t, "user-doctor", result.Session.UserID)
		assert.Equal(t, domainauth.RoleDoctor, result.Session.Role)
		assert.NotEmpty(t, result.Session.AccessToken)
		assert.Equal(t, f.clock.Now().Add(time.Hour), result.Session.ExpiresAt)

		stored, err := f.sessions.Get(ctx, result.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, result.Session, stored)

		assert.Contains(t, f.audit.Actions(), "login")
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())

		_, err := f.svc.Login(ctx, "doctor@hospital.test", "wrong")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
		assert.Equal(t, 0, f.sessions.Len())
		assert.Contains(t, f.audit.Actions(), "login_rejected")
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())

		_, err := f.svc.Login(ctx, "nobody@hospital.test", "correct-horse")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("empty credentials rejected without provider call", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		f.provider.SignInFunc = func(context.Context, ports.Credentials) (ports.ProviderSession, error) {
			t.Fatal("provider must not be called")
			return ports.ProviderSession{}, nil
		}

		_, err := f.svc.Login(ctx, "", "")
		assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("authenticated but no profile is denied and upstream revoked", func(t *testing.T) {
		f := newAuthFixture(t) // no profiles seeded

		_, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		assert.ErrorIs(t, err, service.ErrProfileMissing)
		assert.Equal(t, 0, f.sessions.Len())
		require.Len(t, f.provider.SignOutCalls, 1)
		assert.Contains(t, f.audit.Actions(), "login_denied_no_profile")
	})

	t.Run("inactive statuses are denied with the status", func(t *testing.T) {
		for _, status := range []domainauth.Status{
			domainauth.StatusInactive,
			domainauth.StatusSuspended,
			domainauth.StatusPending,
		} {
			t.Run(string(status), func(t *testing.T) {
				p := activeDoctor()
				p.Status = status
				f := newAuthFixture(t, p)

				_, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")

				var denied *service.AccountNotActiveError
				require.ErrorAs(t, err, &denied)
				assert.Equal(t, status, denied.Status)
				assert.Equal(t, 0, f.sessions.Len())
				assert.NotEmpty(t, f.provider.SignOutCalls)
			})
		}
	})

	t.Run("soft-deleted account is denied even when status reads active", func(t *testing.T) {
		p := activeDoctor()
		deleted := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		p.DeletedAt = &deleted
		f := newAuthFixture(t, p)

		_, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")

		var denied *service.AccountNotActiveError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domainauth.StatusInactive, denied.Status)
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves valid session", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		result, err := f.svc.CurrentUser(ctx, login.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, "user-doctor", result.Principal.ID)
		assert.Equal(t, domainauth.RoleDoctor, result.Principal.Role)
	})

	t.Run("empty session ID", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())

		_, err := f.svc.CurrentUser(ctx, "")
		assert.ErrorIs(t, err, service.ErrNoSession)
	})

	t.Run("unknown session ID", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())

		_, err := f.svc.CurrentUser(ctx, "no-such-session")
		assert.ErrorIs(t, err, service.ErrNoSession)
	})

	t.Run("expired session is rejected and deleted", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)

		_, err = f.svc.CurrentUser(ctx, login.Session.ID)
		assert.ErrorIs(t, err, service.ErrSessionExpired)
		assert.Equal(t, 0, f.sessions.Len())
	})

	t.Run("store failure surfaces instead of granting access", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		storeErr := errors.New("redis down")
		f.sessions.GetFunc = func(context.Context, string) (domainauth.Session, error) {
			return domainauth.Session{}, storeErr
		}

		_, err := f.svc.CurrentUser(ctx, "any")
		require.Error(t, err)
		assert.ErrorIs(t, err, storeErr)
		assert.NotErrorIs(t, err, service.ErrNoSession)
	})

	t.Run("profile vanished mid-session drops the session", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		require.NoError(t, f.profiles.SoftDelete(ctx, "user-doctor"))
		f.profiles.GetByIDFunc = func(context.Context, string) (domainauth.Principal, error) {
			return domainauth.Principal{}, ports.ErrProfileNotFound
		}

		_, err = f.svc.CurrentUser(ctx, login.Session.ID)
		assert.ErrorIs(t, err, service.ErrProfileMissing)
		assert.Equal(t, 0, f.sessions.Len())
	})

	t.Run("account suspended mid-session drops the session", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		require.NoError(t, f.profiles.UpdateStatus(ctx, "user-doctor", domainauth.StatusSuspended))

		_, err = f.svc.CurrentUser(ctx, login.Session.ID)

		var denied *service.AccountNotActiveError
		require.ErrorAs(t, err, &denied)
		assert.Equal(t, domainauth.StatusSuspended, denied.Status)
		assert.Equal(t, 0, f.sessions.Len())
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("success rotates tokens and extends expiry", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		f.clock.Advance(30 * time.Minute)

		refreshed, err := f.svc.Refresh(ctx, login.Session.ID)
		require.NoError(t, err)

		assert.Equal(t, login.Session.ID, refreshed.ID)
		assert.NotEqual(t, login.Session.AccessToken, refreshed.AccessToken)
		assert.NotEqual(t, login.Session.RefreshToken, refreshed.RefreshToken)
		assert.True(t, refreshed.ExpiresAt.After(login.Session.ExpiresAt))

		stored, err := f.sessions.Get(ctx, login.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, refreshed, stored)
	})

	t.Run("stale expiry from the provider fails the refresh", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		f.provider.RefreshFunc = func(context.Context, string) (ports.ProviderSession, error) {
			return ports.ProviderSession{
				UserID:       "user-doctor",
				AccessToken:  "fake-at-user-doctor-99",
				RefreshToken: "fake-rt-user-doctor-99",
				IssuedAt:     f.clock.Now(),
				ExpiresAt:    login.Session.ExpiresAt, // no progress
			}, nil
		}

		_, err = f.svc.Refresh(ctx, login.Session.ID)
		assert.ErrorIs(t, err, service.ErrRefreshFailed)

		stored, err := f.sessions.Get(ctx, login.Session.ID)
		require.NoError(t, err)
		assert.Equal(t, login.Session, stored, "failed refresh must not mutate the session")
	})

	t.Run("rejected refresh token fails the refresh", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		f.provider.RefreshFunc = func(context.Context, string) (ports.ProviderSession, error) {
			return ports.ProviderSession{}, ports.ErrTokenRejected
		}

		_, err = f.svc.Refresh(ctx, login.Session.ID)
		assert.ErrorIs(t, err, service.ErrRefreshFailed)
	})

	t.Run("expired session cannot be refreshed", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)

		_, err = f.svc.Refresh(ctx, login.Session.ID)
		assert.ErrorIs(t, err, service.ErrSessionExpired)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes provider and deletes session", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		require.NoError(t, f.svc.Logout(ctx, login.Session.ID))

		assert.Equal(t, 0, f.sessions.Len())
		assert.Contains(t, f.provider.SignOutCalls, login.Session.AccessToken)
		assert.Contains(t, f.audit.Actions(), "logout")
	})

	t.Run("idempotent for unknown session", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		assert.NoError(t, f.svc.Logout(ctx, "already-gone"))
	})

	t.Run("empty session ID is a no-op", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		assert.NoError(t, f.svc.Logout(ctx, ""))
	})

	t.Run("failing provider still clears the local session", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		provErr := errors.New("idp unreachable")
		f.provider.SignOutFunc = func(context.Context, string) error { return provErr }

		err = f.svc.Logout(ctx, login.Session.ID)
		assert.ErrorIs(t, err, provErr)
		assert.Equal(t, 0, f.sessions.Len(), "session must be deleted despite provider failure")
	})

	t.Run("all teardown errors are reported together", func(t *testing.T) {
		f := newAuthFixture(t, activeDoctor())
		login, err := f.svc.Login(ctx, "doctor@hospital.test", "correct-horse")
		require.NoError(t, err)

		provErr := errors.New("idp unreachable")
		storeErr := errors.New("redis down")
		f.provider.SignOutFunc = func(context.Context, string) error { return provErr }
		f.sessions.DeleteFunc = func(context.Context, string) error { return storeErr }

		err = f.svc.Logout(ctx, login.Session.ID)
		assert.ErrorIs(t, err, provErr)
		assert.ErrorIs(t, err, storeErr)
	})
}
