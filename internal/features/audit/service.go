package audit

import (
	"context"
	"time"

	common_models "go-dashboards/internal/common/models"
	"go-dashboards/internal/logger"
	"go-dashboards/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, q ListQuery) ([]common_models.AuditLog, error)
}

type AuditServiceImpl struct {
	Repo   AuditRepository
	Logger *zap.Logger
}

func NewAuditService(repo AuditRepository, log *zap.Logger) AuditService {
	return &AuditServiceImpl{
		Repo:   repo,
		Logger: logger.OrNop(log),
	}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, changes map[string]common_models.Change) error {
	actorID := "system"
	if claims := utils.ClaimsFromContext(ctx); claims != nil {
		actorID = claims.UserID
	}

	log := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}

	if err := s.Repo.Create(ctx, log); err != nil {
		s.Logger.Warn("audit log write failed",
			zap.String("module", module),
			zap.String("record_id", recordID),
			zap.Error(err))
		return err
	}
	return nil
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, q ListQuery) ([]common_models.AuditLog, error) {
	return s.Repo.List(ctx, q.normalize())
}
