package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
)

// TokenFilter narrows per-survey token listings.
type TokenFilter struct {
	Status   model.TokenStatus
	BatchID  string
	Page     int
	PageSize int
}

type TokenRepository interface {
	CreateBatch(ctx context.Context, tokens []*model.Token) error
	GetByToken(ctx context.Context, tokenStr string) (*model.Token, error)
	// UpdateStatusGuarded performs the atomic conditional status write: the
	// row is updated only if its stored status still equals from. The boolean
	// result reports whether the guard matched; false means another writer
	// got there first.
	UpdateStatusGuarded(ctx context.Context, tokenStr string, from, to model.TokenStatus, now time.Time) (bool, error)
	// TouchAccess unconditionally refreshes last_accessed. Used for read-only
	// visits that do not change lifecycle state.
	TouchAccess(ctx context.Context, tokenStr string, now time.Time) error
	// UpdateFields applies non-status column updates (phone, layer1_passed).
	// Status never goes through here.
	UpdateFields(ctx context.Context, tokenStr string, fields map[string]any) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID, filter TokenFilter) ([]model.Token, int64, error)
	StatusCounts(ctx context.Context, surveyID uuid.UUID) (map[model.TokenStatus]int64, error)
	StatusCountsAll(ctx context.Context) (map[model.TokenStatus]int64, error)
	ListCreatedSince(ctx context.Context, surveyID uuid.UUID, since time.Time) ([]model.Token, error)
	ExtendExpiry(ctx context.Context, ids []uuid.UUID, until time.Time) (int64, error)
}
