package store

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/avandyck/newsdock/internal/models"
)

// EnqueueAction appends a pending action to the outbox.
func (s *ArticleStore) EnqueueAction(ctx context.Context, actionType string, payload map[string]any) (models.OutboxAction, bool) {
	ctx = ensureContext(ctx)

	action := models.OutboxAction{
		Type:       actionType,
		Status:     models.ActionStatusPending,
		EnqueuedAt: s.now(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			s.log.Warn("encode action payload failed", zap.String("type", actionType), zap.Error(err))
			return models.OutboxAction{}, false
		}
		action.Payload = datatypes.JSON(data)
	}

	if err := s.db.WithContext(ctx).Create(&action).Error; err != nil {
		s.log.Warn("enqueue action failed", zap.String("type", actionType), zap.Error(err))
		return models.OutboxAction{}, false
	}
	return action, true
}

// PendingActions returns a snapshot of pending actions in enqueue order.
// Actions enqueued after the snapshot is taken are not included.
func (s *ArticleStore) PendingActions(ctx context.Context) []models.OutboxAction {
	ctx = ensureContext(ctx)

	var actions []models.OutboxAction
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.ActionStatusPending).
		Order("enqueued_at ASC, created_at ASC").
		Find(&actions).Error; err != nil {
		s.log.Warn("list pending actions failed", zap.Error(err))
		return nil
	}
	return actions
}

// ListActions returns the full outbox in enqueue order, newest last.
func (s *ArticleStore) ListActions(ctx context.Context) []models.OutboxAction {
	ctx = ensureContext(ctx)

	var actions []models.OutboxAction
	if err := s.db.WithContext(ctx).
		Order("enqueued_at ASC, created_at ASC").
		Find(&actions).Error; err != nil {
		s.log.Warn("list actions failed", zap.Error(err))
		return nil
	}
	return actions
}

// SetActionStatus moves a pending action to completed or failed. Transitions
// are one-directional: anything already terminal stays untouched.
func (s *ArticleStore) SetActionStatus(ctx context.Context, id, status string) bool {
	ctx = ensureContext(ctx)

	if status != models.ActionStatusCompleted && status != models.ActionStatusFailed {
		s.log.Warn("rejecting invalid action status", zap.String("status", status))
		return false
	}

	result := s.db.WithContext(ctx).Model(&models.OutboxAction{}).
		Where("id = ? AND status = ?", id, models.ActionStatusPending).
		Update("status", status)
	if result.Error != nil {
		s.log.Warn("set action status failed", zap.String("id", id), zap.Error(result.Error))
		return false
	}
	return result.RowsAffected > 0
}
