package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
)

type pgTemplateRepository struct {
	db *gorm.DB
}

func NewPGTemplateRepository(db *gorm.DB) TemplateRepository {
	return &pgTemplateRepository{db: db}
}

func (r *pgTemplateRepository) Create(ctx context.Context, template *model.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *pgTemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *pgTemplateRepository) LatestByName(ctx context.Context, name string) (*model.Template, error) {
	var template model.Template
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("version DESC").
		First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *pgTemplateRepository) HasVersionOne(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Template{}).
		Where("name = ? AND version = 1", name).
		Count(&count).Error
	return count > 0, err
}

func (r *pgTemplateRepository) ListLatestActive(ctx context.Context) ([]model.Template, error) {
	var templates []model.Template
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("version = (SELECT MAX(t2.version) FROM templates t2 WHERE t2.name = templates.name AND t2.is_deleted = ?)", false).
		Order("name ASC").
		Find(&templates).Error
	return templates, err
}

func (r *pgTemplateRepository) ListHistory(ctx context.Context, name string) ([]model.Template, error) {
	var templates []model.Template
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Order("version DESC").
		Find(&templates).Error
	return templates, err
}

func (r *pgTemplateRepository) SoftDeleteByName(ctx context.Context, name string) error {
	return r.db.WithContext(ctx).
		Model(&model.Template{}).
		Where("name = ?", name).
		UpdateColumn("is_deleted", true).
		Error
}
