package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID) ([]model.Submission, error)
	Count(ctx context.Context) (int64, error)
	// ListSubmittedSince returns submission timestamps newer than since,
	// oldest first. Aggregation into buckets happens in the analytics service
	// so the query stays portable.
	ListSubmittedSince(ctx context.Context, since time.Time) ([]time.Time, error)
}
