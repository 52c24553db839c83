package repository

import (
	"context"

	"fieldpulse/surveyhub/internal/model"
)

type RespondentRepository interface {
	// UpsertSparse merges profile fields for a phone number. Only the columns
	// present in fields are written on conflict; fields the caller is silent
	// on keep their stored values. created_at is fixed at first insert.
	UpsertSparse(ctx context.Context, phone string, fields map[string]string) error
	GetByPhone(ctx context.Context, phone string) (*model.Respondent, error)
}
