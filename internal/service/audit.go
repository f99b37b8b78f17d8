package service

import (
	"context"
	"fmt"
	"time"

	"case-chat/internal/logger"
	"case-chat/internal/model"

	"gorm.io/gorm"
)

// AuditService records forwarded webhook calls. A nil *AuditService is a
// valid no-op.
type AuditService struct{ db *gorm.DB }

func NewAuditService(db *gorm.DB) *AuditService { return &AuditService{db: db} }

func (s *AuditService) Migrate() error {
	if s == nil {
		return nil
	}
	return s.db.AutoMigrate(&model.WebhookCall{})
}

func (s *AuditService) Record(ctx context.Context, call *model.WebhookCall) error {
	if s == nil {
		return nil
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("insert webhook call: %w", err)
	}
	return nil
}

// RecordAsync writes call in the background (fire-and-forget).
func (s *AuditService) RecordAsync(call model.WebhookCall) {
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Record(ctx, &call); err != nil {
			logger.Warn("audit.record.failed", "endpoint", call.Endpoint, "err", err)
		}
	}()
}
