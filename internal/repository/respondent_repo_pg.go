package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fieldpulse/surveyhub/internal/model"
)

type pgRespondentRepository struct {
	db *gorm.DB
}

func NewPGRespondentRepository(db *gorm.DB) RespondentRepository {
	return &pgRespondentRepository{db: db}
}

// respondentColumns maps accepted field names to their columns. Anything else
// in the fields map is dropped.
var respondentColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"age_range": "age_range",
	"area":      "area",
	"gender":    "gender",
}

func (r *pgRespondentRepository) UpsertSparse(ctx context.Context, phone string, fields map[string]string) error {
	now := time.Now().UTC()
	respondent := model.Respondent{
		Phone:     phone,
		Name:      fields["name"],
		Email:     fields["email"],
		AgeRange:  fields["age_range"],
		Area:      fields["area"],
		Gender:    fields["gender"],
		CreatedAt: now,
		UpdatedAt: now,
	}

	assignments := map[string]any{"updated_at": now}
	for field, value := range fields {
		column, ok := respondentColumns[field]
		if !ok || value == "" {
			continue
		}
		assignments[column] = value
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(&respondent).Error
}

func (r *pgRespondentRepository) GetByPhone(ctx context.Context, phone string) (*model.Respondent, error) {
	var respondent model.Respondent
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&respondent).Error; err != nil {
		return nil, err
	}
	return &respondent, nil
}
