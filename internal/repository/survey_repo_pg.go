package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
)

type pgSurveyRepository struct {
	db *gorm.DB
}

func NewPGSurveyRepository(db *gorm.DB) SurveyRepository {
	return &pgSurveyRepository{db: db}
}

func (r *pgSurveyRepository) Create(ctx context.Context, survey *model.Survey) error {
	return r.db.WithContext(ctx).Create(survey).Error
}

func (r *pgSurveyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	var survey model.Survey
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&survey).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *pgSurveyRepository) List(ctx context.Context) ([]model.Survey, error) {
	var surveys []model.Survey
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Find(&surveys).Error
	return surveys, err
}

func (r *pgSurveyRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("id = ?", id).
		Updates(fields).
		Error
}

func (r *pgSurveyRepository) UpdateFieldsGuarded(ctx context.Context, id uuid.UUID, from model.SurveyStatus, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pgSurveyRepository) SetGeneratedTokens(ctx context.Context, id uuid.UUID, tokens []string) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("marshal generated tokens: %w", err)
	}
	return r.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("id = ?", id).
		UpdateColumn("generated_tokens", raw).
		Error
}

func (r *pgSurveyRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("id = ?", id).
		UpdateColumn("is_deleted", true).
		Error
}

func (r *pgSurveyRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("is_deleted = ?", false).
		Count(&count).Error
	return count, err
}

func (r *pgSurveyRepository) CountByStatus(ctx context.Context, status model.SurveyStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Survey{}).
		Where("status = ? AND is_deleted = ?", status, false).
		Count(&count).Error
	return count, err
}
