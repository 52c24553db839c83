package service

import (
	"context"
	"errors"
	"testing"

	"fieldpulse/surveyhub/internal/model"
)

func orphanRows(t *testing.T, env *testEnv) []model.OrphanSubmission {
	t.Helper()
	var rows []model.OrphanSubmission
	if err := env.db.Order("timestamp").Find(&rows).Error; err != nil {
		t.Fatalf("load orphans: %v", err)
	}
	return rows
}

func TestWebhookMissingToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.webhook.FinalizeFromForm(context.Background(), map[string]any{
		"answers": map[string]any{"q1": "Yes"},
	})
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}

	rows := orphanRows(t, env)
	if len(rows) != 1 || rows[0].Reason != model.OrphanReasonMissingToken {
		t.Fatalf("expected one missing_token orphan, got %+v", rows)
	}
}

func TestWebhookUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	err := env.webhook.FinalizeFromForm(context.Background(), map[string]any{
		"token": "no-such-token",
	})
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}

	rows := orphanRows(t, env)
	if len(rows) != 1 || rows[0].Reason != model.OrphanReasonTokenNotFound {
		t.Fatalf("expected one token_not_found orphan, got %+v", rows)
	}
}

func TestWebhookUnusedTokenOrphaned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	survey, tokens := createSurveyFixture(t, env, 1)

	// The token never went through screening; the external form event cannot
	// legally finalize it.
	err := env.webhook.FinalizeFromForm(ctx, map[string]any{
		"token":   tokens[0],
		"answers": map[string]any{"q10": "answer"},
	})
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}

	rows := orphanRows(t, env)
	if len(rows) != 1 || rows[0].Reason != "illegal_transition_unused_submitted" {
		t.Fatalf("wrong orphan reason: %+v", rows)
	}

	// The token row is untouched and no submission was written.
	token, err := env.tokens.GetByString(ctx, tokens[0])
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if token.Status != model.TokenStatusUnused {
		t.Fatalf("rejected event mutated status to %s", token.Status)
	}
	var count int64
	if err := env.db.Model(&model.Submission{}).Where("survey_id = ?", survey.ID).Count(&count).Error; err != nil {
		t.Fatalf("count submissions: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected event wrote %d submissions", count)
	}
}

func TestWebhookFinalizesPassedToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	survey, tokens := createSurveyFixture(t, env, 1)

	if _, err := env.tokens.Transition(ctx, tokens[0], model.TokenStatusPassed); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := env.tokens.StampScreening(ctx, tokens[0], "+15550004444", true); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	if err := env.webhook.FinalizeFromForm(ctx, map[string]any{
		"token":   tokens[0],
		"answers": map[string]any{"q10": "answer"},
	}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	token, err := env.tokens.GetByString(ctx, tokens[0])
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if token.Status != model.TokenStatusSubmitted {
		t.Fatalf("expected submitted, got %s", token.Status)
	}

	var submissions []model.Submission
	if err := env.db.Where("survey_id = ?", survey.ID).Find(&submissions).Error; err != nil {
		t.Fatalf("load submissions: %v", err)
	}
	if len(submissions) != 1 {
		t.Fatalf("expected one submission, got %d", len(submissions))
	}
	if submissions[0].Source != model.SubmissionSourceLayer2 || submissions[0].Phone != "+15550004444" {
		t.Fatalf("wrong submission: %+v", submissions[0])
	}

	if rows := orphanRows(t, env); len(rows) != 0 {
		t.Fatalf("clean finalization wrote %d orphans", len(rows))
	}
}

func TestWebhookDuplicateEventOrphaned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, tokens := createSurveyFixture(t, env, 1)

	if _, err := env.tokens.Transition(ctx, tokens[0], model.TokenStatusPassed); err != nil {
		t.Fatalf("transition: %v", err)
	}
	payload := map[string]any{"token": tokens[0], "answers": map[string]any{"q10": "answer"}}
	if err := env.webhook.FinalizeFromForm(ctx, payload); err != nil {
		t.Fatalf("first event: %v", err)
	}

	// A replayed event finds the token already submitted and lands in the
	// ledger instead of double-recording.
	err := env.webhook.FinalizeFromForm(ctx, payload)
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError on replay, got %v", err)
	}
	rows := orphanRows(t, env)
	if len(rows) != 1 || rows[0].Reason != "illegal_transition_submitted_submitted" {
		t.Fatalf("wrong replay orphan: %+v", rows)
	}
}
