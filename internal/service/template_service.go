package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

// versionInsertAttempts bounds the retry loop when two concurrent edits
// resolve the same latest version and race on the (name, version) unique
// index. The loser re-resolves and tries again.
const versionInsertAttempts = 3

// TemplateContent is the caller-supplied content of one template version.
type TemplateContent struct {
	Name            string         `json:"name" binding:"required"`
	Type            string         `json:"type"`
	Layer1Schema    datatypes.JSON `json:"layer1_question_schema"`
	Layer1Questions datatypes.JSON `json:"layer1_questions"`
	Layer1Structure datatypes.JSON `json:"layer1_structure"`
	Layer2Structure datatypes.JSON `json:"layer2_structure"`
}

type TemplateService interface {
	Create(ctx context.Context, content TemplateContent) (*model.Template, error)
	// Update appends a new version forked from the current latest version of
	// the template's name, regardless of which version the id points at.
	Update(ctx context.Context, id uuid.UUID, content TemplateContent) (*model.Template, error)
	// Rollback copies an older version's content into a brand-new latest
	// version. The copy is never flagged deleted.
	Rollback(ctx context.Context, id uuid.UUID) (*model.Template, error)
	// SoftDelete flags every version sharing the name as deleted.
	SoftDelete(ctx context.Context, name string) error
	Get(ctx context.Context, id uuid.UUID) (*model.Template, error)
	ListLatestActive(ctx context.Context) ([]model.Template, error)
	History(ctx context.Context, name string) ([]model.Template, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
}

func NewTemplateService(templateRepo repository.TemplateRepository) TemplateService {
	return &templateService{templateRepo: templateRepo}
}

func (s *templateService) Create(ctx context.Context, content TemplateContent) (*model.Template, error) {
	exists, err := s.templateRepo.HasVersionOne(ctx, content.Name)
	if err != nil {
		return nil, fmt.Errorf("check template name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateTemplateName
	}

	template := newVersion(content.Name, 1, content)
	if err := s.templateRepo.Create(ctx, template); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateTemplateName
		}
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (s *templateService) Update(ctx context.Context, id uuid.UUID, content TemplateContent) (*model.Template, error) {
	existing, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("load template: %w", err)
	}

	// The name is pinned to the existing row so editing an old version always
	// forks from the latest version of the same name and the per-name version
	// sequence stays dense.
	return s.appendVersion(ctx, existing.Name, func(version int) *model.Template {
		return newVersion(existing.Name, version, content)
	})
}

func (s *templateService) Rollback(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	target, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("load rollback target: %w", err)
	}

	return s.appendVersion(ctx, target.Name, func(version int) *model.Template {
		return &model.Template{
			Name:            target.Name,
			Type:            target.Type,
			Version:         version,
			IsDeleted:       false,
			Layer1Schema:    target.Layer1Schema,
			Layer1Questions: target.Layer1Questions,
			Layer1Structure: target.Layer1Structure,
			Layer2Structure: target.Layer2Structure,
			CreatedAt:       time.Now().UTC(),
		}
	})
}

// appendVersion resolves the current latest version for name and inserts the
// next one, retrying when a concurrent writer claims the same version number.
func (s *templateService) appendVersion(ctx context.Context, name string, build func(version int) *model.Template) (*model.Template, error) {
	for attempt := 0; attempt < versionInsertAttempts; attempt++ {
		latest, err := s.templateRepo.LatestByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve latest version: %w", err)
		}

		template := build(latest.Version + 1)
		err = s.templateRepo.Create(ctx, template)
		if err == nil {
			return template, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("insert template version: %w", err)
		}
	}
	return nil, ErrConcurrentModification
}

func (s *templateService) SoftDelete(ctx context.Context, name string) error {
	if _, err := s.templateRepo.LatestByName(ctx, name); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("load template: %w", err)
	}
	if err := s.templateRepo.SoftDeleteByName(ctx, name); err != nil {
		return fmt.Errorf("soft delete template: %w", err)
	}
	return nil
}

func (s *templateService) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("load template: %w", err)
	}
	if template.IsDeleted {
		return nil, ErrTemplateNotFound
	}
	return template, nil
}

func (s *templateService) ListLatestActive(ctx context.Context) ([]model.Template, error) {
	return s.templateRepo.ListLatestActive(ctx)
}

func (s *templateService) History(ctx context.Context, name string) ([]model.Template, error) {
	return s.templateRepo.ListHistory(ctx, name)
}

func newVersion(name string, version int, content TemplateContent) *model.Template {
	return &model.Template{
		Name:            name,
		Type:            content.Type,
		Version:         version,
		IsDeleted:       false,
		Layer1Schema:    orEmptyObject(content.Layer1Schema),
		Layer1Questions: orEmptyArray(content.Layer1Questions),
		Layer1Structure: orEmptyObject(content.Layer1Structure),
		Layer2Structure: orEmptyObject(content.Layer2Structure),
		CreatedAt:       time.Now().UTC(),
	}
}

func orEmptyObject(raw datatypes.JSON) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte(`{}`))
	}
	return raw
}

func orEmptyArray(raw datatypes.JSON) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte(`[]`))
	}
	return raw
}
