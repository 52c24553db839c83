package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

type WebhookService interface {
	// FinalizeFromForm handles an inbound external form event. The guarded
	// passed -> submitted transition runs first; the answer payload is only
	// recorded once the guard succeeded. Any failure to match the event to a
	// legal transition degrades to an orphan ledger write and a rejection,
	// never a crash.
	FinalizeFromForm(ctx context.Context, payload map[string]any) error
}

type webhookService struct {
	tokens         TokenService
	submissionRepo repository.SubmissionRepository
	orphanRepo     repository.OrphanRepository
	logger         *zap.Logger
}

func NewWebhookService(
	tokens TokenService,
	submissionRepo repository.SubmissionRepository,
	orphanRepo repository.OrphanRepository,
	logger *zap.Logger,
) WebhookService {
	return &webhookService{
		tokens:         tokens,
		submissionRepo: submissionRepo,
		orphanRepo:     orphanRepo,
		logger:         logger,
	}
}

func (s *webhookService) FinalizeFromForm(ctx context.Context, payload map[string]any) error {
	tokenStr, _ := payload["token"].(string)
	if tokenStr == "" {
		s.logOrphan(ctx, payload, model.OrphanReasonMissingToken)
		return ErrMissingToken
	}

	token, err := s.tokens.Transition(ctx, tokenStr, model.TokenStatusSubmitted)
	if err != nil {
		s.logOrphan(ctx, payload, orphanReason(err))
		return err
	}

	answers, _ := payload["answers"].(map[string]any)
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	submission := &model.Submission{
		SurveyID:    token.SurveyID,
		Token:       tokenStr,
		Phone:       token.Phone,
		Answers:     raw,
		Source:      model.SubmissionSourceLayer2,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}

	s.logger.Info("webhook finalized token", zap.String("token", tokenStr))
	return nil
}

// orphanReason names the specific matching failure so the ledger stays
// reconcilable by hand.
func orphanReason(err error) string {
	var transitionErr *TransitionError
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return model.OrphanReasonTokenNotFound
	case errors.Is(err, ErrConcurrentModification):
		return model.OrphanReasonConcurrentModification
	case errors.As(err, &transitionErr):
		return fmt.Sprintf("illegal_transition_%s_%s", transitionErr.From, transitionErr.To)
	}
	return "finalization_error"
}

func (s *webhookService) logOrphan(ctx context.Context, payload map[string]any, reason string) {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(`{}`)
	}
	orphan := &model.OrphanSubmission{
		Payload:   raw,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
	if err := s.orphanRepo.Create(ctx, orphan); err != nil {
		s.logger.Error("orphan ledger write failed", zap.String("reason", reason), zap.Error(err))
		return
	}
	s.logger.Warn("orphan submission logged", zap.String("reason", reason))
}
