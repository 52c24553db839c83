package repository

import (
	"context"

	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
)

type pgOrphanRepository struct {
	db *gorm.DB
}

func NewPGOrphanRepository(db *gorm.DB) OrphanRepository {
	return &pgOrphanRepository{db: db}
}

func (r *pgOrphanRepository) Create(ctx context.Context, orphan *model.OrphanSubmission) error {
	return r.db.WithContext(ctx).Create(orphan).Error
}

func (r *pgOrphanRepository) Summary(ctx context.Context) ([]OrphanReasonCount, error) {
	var rows []OrphanReasonCount
	err := r.db.WithContext(ctx).
		Model(&model.OrphanSubmission{}).
		Select("reason, COUNT(*) AS count, MAX(timestamp) AS latest_attempt").
		Group("reason").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *pgOrphanRepository) ListByReason(ctx context.Context, reason string, limit int) ([]model.OrphanSubmission, error) {
	if limit < 1 {
		limit = 10
	}
	var orphans []model.OrphanSubmission
	err := r.db.WithContext(ctx).
		Where("reason = ?", reason).
		Order("timestamp DESC").
		Limit(limit).
		Find(&orphans).Error
	return orphans, err
}
