package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
)

type pgTokenRepository struct {
	db *gorm.DB
}

func NewPGTokenRepository(db *gorm.DB) TokenRepository {
	return &pgTokenRepository{db: db}
}

func (r *pgTokenRepository) CreateBatch(ctx context.Context, tokens []*model.Token) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(tokens).Error
}

func (r *pgTokenRepository) GetByToken(ctx context.Context, tokenStr string) (*model.Token, error) {
	var token model.Token
	if err := r.db.WithContext(ctx).Where("token = ?", tokenStr).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *pgTokenRepository) UpdateStatusGuarded(ctx context.Context, tokenStr string, from, to model.TokenStatus, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("token = ? AND status = ?", tokenStr, from).
		Updates(map[string]any{
			"status":        to,
			"last_accessed": now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *pgTokenRepository) TouchAccess(ctx context.Context, tokenStr string, now time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("token = ?", tokenStr).
		UpdateColumn("last_accessed", now).
		Error
}

func (r *pgTokenRepository) UpdateFields(ctx context.Context, tokenStr string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	delete(fields, "status")
	return r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("token = ?", tokenStr).
		Updates(fields).
		Error
}

func (r *pgTokenRepository) ListBySurvey(ctx context.Context, surveyID uuid.UUID, filter TokenFilter) ([]model.Token, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Token{}).Where("survey_id = ?", surveyID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.BatchID != "" {
		query = query.Where("batch_id = ?", filter.BatchID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 50
	}

	var tokens []model.Token
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tokens).Error
	return tokens, total, err
}

type statusCountRow struct {
	Status model.TokenStatus
	Count  int64
}

func (r *pgTokenRepository) StatusCounts(ctx context.Context, surveyID uuid.UUID) (map[model.TokenStatus]int64, error) {
	var rows []statusCountRow
	err := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Select("status, COUNT(*) AS count").
		Where("survey_id = ?", surveyID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countsToMap(rows), nil
}

func (r *pgTokenRepository) StatusCountsAll(ctx context.Context) (map[model.TokenStatus]int64, error) {
	var rows []statusCountRow
	err := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return countsToMap(rows), nil
}

func countsToMap(rows []statusCountRow) map[model.TokenStatus]int64 {
	counts := make(map[model.TokenStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts
}

func (r *pgTokenRepository) ListCreatedSince(ctx context.Context, surveyID uuid.UUID, since time.Time) ([]model.Token, error) {
	var tokens []model.Token
	err := r.db.WithContext(ctx).
		Where("survey_id = ? AND created_at >= ?", surveyID, since).
		Order("created_at ASC").
		Find(&tokens).Error
	return tokens, err
}

func (r *pgTokenRepository) ExtendExpiry(ctx context.Context, ids []uuid.UUID, until time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Token{}).
		Where("id IN ?", ids).
		UpdateColumn("expires_at", until)
	return res.RowsAffected, res.Error
}
