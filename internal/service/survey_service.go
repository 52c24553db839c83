package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

type CreateSurveyRequest struct {
	CompanyName    string         `json:"company_name" binding:"required"`
	TemplateID     uuid.UUID      `json:"template_id" binding:"required"`
	Customizations datatypes.JSON `json:"customizations"`
	Layer1Rules    datatypes.JSON `json:"layer1_rules"`
	GoogleFormID   string         `json:"google_form_id"`
	GoogleFormURL  string         `json:"google_form_url"`
	LinkCount      int            `json:"link_count"`
}

// UpdateSurveyRequest carries a partial field set; nil means absent. The
// field set itself is part of the contract: once a survey leaves draft, a
// request is accepted only if it contains exactly {status}.
type UpdateSurveyRequest struct {
	CompanyName    *string             `json:"company_name"`
	Customizations datatypes.JSON      `json:"customizations"`
	Layer1Rules    datatypes.JSON      `json:"layer1_rules"`
	GoogleFormID   *string             `json:"google_form_id"`
	GoogleFormURL  *string             `json:"google_form_url"`
	Status         *model.SurveyStatus `json:"status"`
}

type SurveyService interface {
	Create(ctx context.Context, req CreateSurveyRequest, createdBy string) (*model.Survey, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Survey, error)
	List(ctx context.Context) ([]model.Survey, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateSurveyRequest) (*model.Survey, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.SurveyStatus) (*model.Survey, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type surveyService struct {
	surveyRepo   repository.SurveyRepository
	templateRepo repository.TemplateRepository
	tokens       TokenService
}

func NewSurveyService(surveyRepo repository.SurveyRepository, templateRepo repository.TemplateRepository, tokens TokenService) SurveyService {
	return &surveyService{
		surveyRepo:   surveyRepo,
		templateRepo: templateRepo,
		tokens:       tokens,
	}
}

// Create snapshots the referenced template and provisions the requested link
// count. Token rows are inserted after the survey exists; the survey-side
// generated_tokens list is an advisory cache written last, so a crash in
// between leaves token rows (the source of truth) valid and only the cache
// stale.
func (s *surveyService) Create(ctx context.Context, req CreateSurveyRequest, createdBy string) (*model.Survey, error) {
	template, err := s.templateRepo.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("load template: %w", err)
	}
	if template.IsDeleted {
		return nil, ErrTemplateDeleted
	}

	questions := ExtractLayer1Questions(template)
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot questions: %w", err)
	}

	survey := &model.Survey{
		CompanyName:       req.CompanyName,
		TemplateID:        template.ID,
		TemplateVersion:   template.Version,
		SnapshotSchema:    Layer1Schema(template),
		SnapshotQuestions: questionsJSON,
		SnapshotLayer2:    orEmptyObject(template.Layer2Structure),
		Customizations:    orEmptyObject(req.Customizations),
		Layer1Rules:       orEmptyObject(req.Layer1Rules),
		GoogleFormID:      req.GoogleFormID,
		GoogleFormURL:     req.GoogleFormURL,
		Status:            model.SurveyStatusDraft,
		LinkCount:         req.LinkCount,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}

	if req.LinkCount > 0 {
		tokens, err := s.tokens.ProvisionBatch(ctx, survey.ID, req.LinkCount, createdBy)
		if err != nil {
			return nil, fmt.Errorf("provision tokens: %w", err)
		}
		if err := s.surveyRepo.SetGeneratedTokens(ctx, survey.ID, tokens); err != nil {
			return nil, fmt.Errorf("record generated tokens: %w", err)
		}
		if raw, err := json.Marshal(tokens); err == nil {
			survey.GeneratedTokens = raw
		}
	}

	return survey, nil
}

func (s *surveyService) Get(ctx context.Context, id uuid.UUID) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("load survey: %w", err)
	}
	return survey, nil
}

func (s *surveyService) List(ctx context.Context) ([]model.Survey, error) {
	return s.surveyRepo.List(ctx)
}

func (s *surveyService) Update(ctx context.Context, id uuid.UUID, req UpdateSurveyRequest) (*model.Survey, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.CompanyName != nil {
		fields["company_name"] = *req.CompanyName
	}
	if req.Customizations != nil {
		fields["customizations"] = req.Customizations
	}
	if req.Layer1Rules != nil {
		fields["layer1_rules"] = req.Layer1Rules
	}
	if req.GoogleFormID != nil {
		fields["google_form_id"] = *req.GoogleFormID
	}
	if req.GoogleFormURL != nil {
		fields["google_form_url"] = *req.GoogleFormURL
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}

	// Form id immutability is independent of the edit lock: a changed value
	// is rejected outside draft no matter what else the request carries.
	if req.GoogleFormID != nil && existing.Status != model.SurveyStatusDraft && *req.GoogleFormID != existing.GoogleFormID {
		return nil, ErrFormIDImmutable
	}

	// Once a survey leaves draft, the accepted field set is exactly {status},
	// even when a supplied value equals the stored one. The whole request is
	// rejected; no partial update is applied.
	statusOnly := req.Status != nil && len(fields) == 1
	if existing.Status != model.SurveyStatusDraft && !statusOnly {
		return nil, ErrEditLocked
	}

	if req.Status != nil {
		if err := s.checkTransition(existing.Status, *req.Status); err != nil {
			return nil, err
		}
	}

	if len(fields) == 0 {
		return existing, nil
	}

	if err := s.applyFields(ctx, existing, fields, req.Status != nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *surveyService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SurveyStatus) (*model.Survey, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkTransition(existing.Status, status); err != nil {
		return nil, err
	}
	if err := s.applyFields(ctx, existing, map[string]any{"status": status}, true); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *surveyService) checkTransition(from, to model.SurveyStatus) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if !from.CanTransitionTo(to) {
		return &TransitionError{Entity: "survey", From: string(from), To: string(to)}
	}
	return nil
}

// applyFields writes the update. Status changes go through a guarded write
// conditioned on the observed status so two racing transitions cannot both
// take effect.
func (s *surveyService) applyFields(ctx context.Context, existing *model.Survey, fields map[string]any, statusChange bool) error {
	if !statusChange {
		if err := s.surveyRepo.UpdateFields(ctx, existing.ID, fields); err != nil {
			return fmt.Errorf("update survey: %w", err)
		}
		return nil
	}

	ok, err := s.surveyRepo.UpdateFieldsGuarded(ctx, existing.ID, existing.Status, fields)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	if !ok {
		return ErrConcurrentModification
	}
	return nil
}

func (s *surveyService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.surveyRepo.SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("soft delete survey: %w", err)
	}
	return nil
}
