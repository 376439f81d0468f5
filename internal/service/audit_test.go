package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afyacare/hms/internal/domain/model"
	mockauth "github.com/afyacare/hms/internal/mocks/auth"
	"github.com/afyacare/hms/internal/service"
	"github.com/afyacare/hms/internal/testutil"
)

func TestAuditService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("persists entry with default severity", func(t *testing.T) {
		repo := mockauth.NewMemoryAuditRepo()
		svc := service.NewAuditService(repo, testutil.DiscardLogger())

		svc.Record(ctx, model.AuditEntry{
			Actor:    "user-1",
			Entity:   "patient",
			EntityID: "pat-1",
			Action:   "patient_created",
		})

		entries := repo.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, model.AuditInfo, entries[0].Severity)
		assert.Equal(t, "patient_created", entries[0].Action)
	})

	t.Run("sink failure is swallowed", func(t *testing.T) {
		repo := mockauth.NewMemoryAuditRepo()
		repo.RecordErr = errors.New("insert failed")
		svc := service.NewAuditService(repo, testutil.DiscardLogger())

		// Must not panic or propagate; auditing never fails the action.
		svc.Record(ctx, model.AuditEntry{Actor: "user-1", Action: "login"})
		assert.Empty(t, repo.Entries())
	})

	t.Run("nil repo degrades to logging only", func(t *testing.T) {
		svc := service.NewAuditService(nil, testutil.DiscardLogger())
		svc.Record(ctx, model.AuditEntry{Actor: "user-1", Action: "login"})

		history, err := svc.History(ctx, "auth", "user-1", 10)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestAuditService_History(t *testing.T) {
	ctx := context.Background()
	repo := mockauth.NewMemoryAuditRepo()
	svc := service.NewAuditService(repo, testutil.DiscardLogger())

	svc.Record(ctx, model.AuditEntry{Actor: "a", Entity: "patient", EntityID: "pat-1", Action: "patient_created"})
	svc.Record(ctx, model.AuditEntry{Actor: "a", Entity: "patient", EntityID: "pat-2", Action: "patient_created"})
	svc.Record(ctx, model.AuditEntry{Actor: "b", Entity: "patient", EntityID: "pat-1", Action: "patient_updated"})

	history, err := svc.History(ctx, "patient", "pat-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "patient_updated", history[0].Action, "newest first")
}
