package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mosinatet/commspec/internal/models"
	"github.com/mosinatet/commspec/pkg/util"
)

// AuditService appends action records to the audit trail and serves the
// aggregate stats endpoints. Audit writes are best-effort: a failed
// append is logged, never propagated, so a broken audit table cannot
// block publishing or comment handling.
type AuditService struct {
	store  Store
	logger *zap.Logger
}

func NewAuditService(store Store, logger *zap.Logger) *AuditService {
	return &AuditService{store: store, logger: logger}
}

func (s *AuditService) Record(ctx context.Context, action, entityType, entityID, details string, ok bool) {
	status := "success"
	if !ok {
		status = "failure"
	}
	log := &models.AuditLog{
		LogID:      util.NewLogID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Status:     status,
	}
	if err := s.store.AppendAudit(ctx, log); err != nil {
		s.logger.Error("Failed to append audit log",
			zap.String("action", action),
			zap.String("entity_id", entityID),
			zap.Error(err))
	}
}

func (s *AuditService) PostStatusCounts(ctx context.Context) (map[models.PostStatus]int64, error) {
	return s.store.PostStatusCounts(ctx)
}

func (s *AuditService) CommentStats(ctx context.Context) (*CommentStats, error) {
	return s.store.CommentStats(ctx)
}
