package service

import (
	"context"
	"log/slog"

	"github.com/afyacare/hms/internal/core"
	"github.com/afyacare/hms/internal/domain/model"
)

// AuditService records security-relevant actions. Recording is strictly
// fire-and-forget: a broken audit sink degrades to log lines, it never blocks
// or fails the action being audited.
type AuditService struct {
	repo   core.AuditRepository
	logger *slog.Logger
}

// NewAuditService constructs a new AuditService. A nil repo disables
// persistence; entries still reach the log.
func NewAuditService(repo core.AuditRepository, logger *slog.Logger) *AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{repo: repo, logger: logger.With("component", "audit")}
}

// Record persists an audit entry, swallowing any sink error.
func (s *AuditService) Record(ctx context.Context, entry model.AuditEntry) {
	if entry.Severity == "" {
		entry.Severity = model.AuditInfo
	}

	if s.repo != nil {
		if err := s.repo.Record(ctx, entry); err != nil {
			s.logger.ErrorContext(ctx, "audit write failed",
				"err", err,
				"actor", entry.Actor,
				"action", entry.Action,
				"entity", entry.Entity,
				"entity_id", entry.EntityID,
			)
			return
		}
	}

	s.logger.InfoContext(ctx, "audit",
		"actor", entry.Actor,
		"action", entry.Action,
		"entity", entry.Entity,
		"entity_id", entry.EntityID,
		"severity", string(entry.Severity),
	)
}

// History lists recent audit entries for one entity.
func (s *AuditService) History(ctx context.Context, entity, entityID string, limit int) ([]model.AuditEntry, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByEntity(ctx, entity, entityID, limit)
}
