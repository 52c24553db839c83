package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
)

type pgSubmissionRepository struct {
	db *gorm.DB
}

func NewPGSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) Create(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *pgSubmissionRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.db.WithContext(ctx).
		Where("survey_id = ?", surveyID).
		Order("submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}

func (r *pgSubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Submission{}).Count(&count).Error
	return count, err
}

func (r *pgSubmissionRepository) ListSubmittedSince(ctx context.Context, since time.Time) ([]time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("submitted_at >= ?", since).
		Order("submitted_at ASC").
		Pluck("submitted_at", &stamps).Error
	return stamps, err
}
