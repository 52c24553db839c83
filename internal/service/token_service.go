package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
	"fieldpulse/surveyhub/pkg/crypto"
)

// TokenSummary is the per-survey status breakdown.
type TokenSummary struct {
	Unused    int64 `json:"unused"`
	Passed    int64 `json:"passed"`
	Failed    int64 `json:"failed"`
	Submitted int64 `json:"submitted"`
	Total     int64 `json:"total"`
}

type TokenService interface {
	// Generate bulk-creates count tokens for an existing survey.
	Generate(ctx context.Context, surveyID uuid.UUID, count int, createdBy string) ([]string, error)
	// ProvisionBatch is Generate without the survey existence check, for use
	// inside survey creation where the survey was just written.
	ProvisionBatch(ctx context.Context, surveyID uuid.UUID, count int, createdBy string) ([]string, error)
	GetByString(ctx context.Context, tokenStr string) (*model.Token, error)
	// Transition moves a token to target through the guarded conditional
	// update. It fails fast with a TransitionError when target is not
	// reachable from the current status, and with ErrConcurrentModification
	// when another writer won the race between read and write.
	Transition(ctx context.Context, tokenStr string, target model.TokenStatus) (*model.Token, error)
	// RecordAccess refreshes last_accessed without touching lifecycle state.
	RecordAccess(ctx context.Context, tokenStr string) error
	// StampScreening records the screening outcome flag and the respondent's
	// phone on the token. Status is untouched.
	StampScreening(ctx context.Context, tokenStr, phone string, passed bool) error
	ListBySurvey(ctx context.Context, surveyID uuid.UUID, filter repository.TokenFilter) ([]model.Token, int64, error)
	Summary(ctx context.Context, surveyID uuid.UUID) (*TokenSummary, error)
	// ExtendExpiry pushes the expiry horizon for a set of tokens. Status is
	// never bulk-writable; guarded transitions are the only status writer.
	ExtendExpiry(ctx context.Context, ids []uuid.UUID, until time.Time) (int64, error)
}

type tokenService struct {
	tokenRepo  repository.TokenRepository
	surveyRepo repository.SurveyRepository
	defaultTTL time.Duration
}

func NewTokenService(tokenRepo repository.TokenRepository, surveyRepo repository.SurveyRepository, defaultTTL time.Duration) TokenService {
	return &tokenService{
		tokenRepo:  tokenRepo,
		surveyRepo: surveyRepo,
		defaultTTL: defaultTTL,
	}
}

func (s *tokenService) Generate(ctx context.Context, surveyID uuid.UUID, count int, createdBy string) ([]string, error) {
	if _, err := s.surveyRepo.GetByID(ctx, surveyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("load survey: %w", err)
	}
	return s.ProvisionBatch(ctx, surveyID, count, createdBy)
}

func (s *tokenService) ProvisionBatch(ctx context.Context, surveyID uuid.UUID, count int, createdBy string) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	batchID, err := crypto.GenerateRandomString(6)
	if err != nil {
		return nil, fmt.Errorf("generate batch id: %w", err)
	}
	now := time.Now().UTC()
	expiresAt := now.Add(s.defaultTTL)

	strings := make([]string, 0, count)
	tokens := make([]*model.Token, 0, count)
	for i := 0; i < count; i++ {
		tokenStr := uuid.NewString()
		strings = append(strings, tokenStr)
		tokens = append(tokens, &model.Token{
			SurveyID:  surveyID,
			Token:     tokenStr,
			Status:    model.TokenStatusUnused,
			BatchID:   batchID,
			CreatedBy: createdBy,
			CreatedAt: now,
			ExpiresAt: &expiresAt,
		})
	}

	if err := s.tokenRepo.CreateBatch(ctx, tokens); err != nil {
		return nil, fmt.Errorf("insert token batch: %w", err)
	}
	return strings, nil
}

func (s *tokenService) GetByString(ctx context.Context, tokenStr string) (*model.Token, error) {
	token, err := s.tokenRepo.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	return token, nil
}

func (s *tokenService) Transition(ctx context.Context, tokenStr string, target model.TokenStatus) (*model.Token, error) {
	token, err := s.GetByString(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	observed := token.Status
	if !observed.CanTransitionTo(target) {
		return nil, &TransitionError{Entity: "token", From: string(observed), To: string(target)}
	}

	now := time.Now().UTC()
	ok, err := s.tokenRepo.UpdateStatusGuarded(ctx, tokenStr, observed, target, now)
	if err != nil {
		return nil, fmt.Errorf("guarded status update: %w", err)
	}
	if !ok {
		// Another caller mutated the token between our read and this write.
		return nil, ErrConcurrentModification
	}

	token.Status = target
	token.LastAccessed = &now
	return token, nil
}

func (s *tokenService) RecordAccess(ctx context.Context, tokenStr string) error {
	return s.tokenRepo.TouchAccess(ctx, tokenStr, time.Now().UTC())
}

func (s *tokenService) StampScreening(ctx context.Context, tokenStr, phone string, passed bool) error {
	fields := map[string]any{"layer1_passed": passed}
	if phone != "" {
		fields["phone"] = phone
	}
	return s.tokenRepo.UpdateFields(ctx, tokenStr, fields)
}

func (s *tokenService) ListBySurvey(ctx context.Context, surveyID uuid.UUID, filter repository.TokenFilter) ([]model.Token, int64, error) {
	return s.tokenRepo.ListBySurvey(ctx, surveyID, filter)
}

func (s *tokenService) Summary(ctx context.Context, surveyID uuid.UUID) (*TokenSummary, error) {
	counts, err := s.tokenRepo.StatusCounts(ctx, surveyID)
	if err != nil {
		return nil, fmt.Errorf("count token statuses: %w", err)
	}
	summary := &TokenSummary{
		Unused:    counts[model.TokenStatusUnused],
		Passed:    counts[model.TokenStatusPassed],
		Failed:    counts[model.TokenStatusFailed],
		Submitted: counts[model.TokenStatusSubmitted],
	}
	summary.Total = summary.Unused + summary.Passed + summary.Failed + summary.Submitted
	return summary, nil
}

func (s *tokenService) ExtendExpiry(ctx context.Context, ids []uuid.UUID, until time.Time) (int64, error) {
	return s.tokenRepo.ExtendExpiry(ctx, ids, until)
}
