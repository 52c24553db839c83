package repository

import (
	"context"

	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
)

type SurveyRepository interface {
	Create(ctx context.Context, survey *model.Survey) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Survey, error)
	// List returns surveys that are not soft-deleted, newest first.
	List(ctx context.Context) ([]model.Survey, error)
	// UpdateFields applies a partial column update. Field legality is the
	// service's responsibility; the repository applies what it is given.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	// UpdateFieldsGuarded applies the update only if the stored status still
	// equals from. The boolean result reports whether the guard matched.
	UpdateFieldsGuarded(ctx context.Context, id uuid.UUID, from model.SurveyStatus, fields map[string]any) (bool, error)
	SetGeneratedTokens(ctx context.Context, id uuid.UUID, tokens []string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status model.SurveyStatus) (int64, error)
}
