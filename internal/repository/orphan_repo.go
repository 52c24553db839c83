package repository

import (
	"context"
	"time"

	"fieldpulse/surveyhub/internal/model"
)

// OrphanReasonCount is one row of the reason-grouped orphan summary.
type OrphanReasonCount struct {
	Reason        string    `json:"reason"`
	Count         int64     `json:"count"`
	LatestAttempt time.Time `json:"latest_attempt"`
}

type OrphanRepository interface {
	Create(ctx context.Context, orphan *model.OrphanSubmission) error
	Summary(ctx context.Context) ([]OrphanReasonCount, error)
	ListByReason(ctx context.Context, reason string, limit int) ([]model.OrphanSubmission, error)
}
