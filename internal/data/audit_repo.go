package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/afyacare/hms/internal/data/pgxutil"
	"github.com/afyacare/hms/internal/domain/model"
	"github.com/afyacare/hms/internal/util"
)

// AuditRepo persists audit log entries. It implements ports.AuditSink.
// Callers treat Record as best effort; this repo only reports the error,
// it never retries.
type AuditRepo struct {
	DB    *sql.DB
	clock util.Clock
}

// NewAuditRepo creates an AuditRepo with the system clock.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{DB: db, clock: util.RealClock{}}
}

// NewAuditRepoWithClock creates an AuditRepo with a custom clock (useful for tests).
func NewAuditRepoWithClock(db *sql.DB, clock util.Clock) *AuditRepo {
	return &AuditRepo{DB: db, clock: clock}
}

// Record inserts an audit entry. ID and CreatedAt are assigned here; Severity
// defaults to info.
func (r *AuditRepo) Record(ctx context.Context, entry model.AuditEntry) error {
	if entry.Severity == "" {
		entry.Severity = model.AuditInfo
	}
	if !entry.Severity.Valid() {
		return fmt.Errorf("invalid audit severity %q", entry.Severity)
	}

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, execErr := conn.Exec(ctx, `
			INSERT INTO audit_log (id, actor, entity, entity_id, action, details, reason, severity, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.NewString(),
			entry.Actor,
			entry.Entity,
			entry.EntityID,
			entry.Action,
			details,
			entry.Reason,
			entry.Severity,
			r.clock.Now().UTC(),
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

// ListByEntity retrieves audit entries for one entity, newest first.
func (r *AuditRepo) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var out []model.AuditEntry
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, actor, entity, entity_id, action, details, reason, severity, created_at
			FROM audit_log
			WHERE entity = $1 AND entity_id = $2
			ORDER BY created_at DESC
			LIMIT $3`,
			entity, entityID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var entry model.AuditEntry
			var details []byte
			if scanErr := rows.Scan(
				&entry.ID, &entry.Actor, &entry.Entity, &entry.EntityID,
				&entry.Action, &details, &entry.Reason, &entry.Severity,
				&entry.CreatedAt,
			); scanErr != nil {
				return scanErr
			}
			if len(details) > 0 {
				if jsonErr := json.Unmarshal(details, &entry.Details); jsonErr != nil {
					return fmt.Errorf("unmarshal audit details: %w", jsonErr)
				}
			}
			out = append(out, entry)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return out, nil
}
