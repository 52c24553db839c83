package repository

import (
	"context"

	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
)

type TemplateRepository interface {
	// Create inserts one template version. A (name, version) collision
	// surfaces as gorm.ErrDuplicatedKey; callers retry by re-resolving the
	// latest version.
	Create(ctx context.Context, template *model.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error)
	// LatestByName returns the highest-numbered version for a name,
	// regardless of deletion flags.
	LatestByName(ctx context.Context, name string) (*model.Template, error)
	HasVersionOne(ctx context.Context, name string) (bool, error)
	// ListLatestActive returns, for each distinct non-deleted name, only its
	// highest-numbered version.
	ListLatestActive(ctx context.Context) ([]model.Template, error)
	ListHistory(ctx context.Context, name string) ([]model.Template, error)
	SoftDeleteByName(ctx context.Context, name string) error
}
