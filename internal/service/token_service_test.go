package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

func createSurveyFixture(t *testing.T, env *testEnv, linkCount int) (*model.Survey, []string) {
	t.Helper()
	ctx := context.Background()

	tmpl, err := env.templates.Create(ctx, TemplateContent{
		Name:            "tokens-" + uuid.NewString()[:8],
		Layer1Questions: screeningQuestions(),
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	survey, err := env.surveys.Create(ctx, CreateSurveyRequest{
		CompanyName: "Acme",
		TemplateID:  tmpl.ID,
		LinkCount:   linkCount,
	}, "tester")
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}

	var tokens []model.Token
	if err := env.db.Where("survey_id = ?", survey.ID).Order("created_at").Find(&tokens).Error; err != nil {
		t.Fatalf("load tokens: %v", err)
	}
	strs := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		strs = append(strs, tok.Token)
	}
	return survey, strs
}

func TestTokenGenerateBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	survey, _ := createSurveyFixture(t, env, 0)
	tokens, err := env.tokens.Generate(ctx, survey.ID, 5, "tester")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}

	var rows []model.Token
	if err := env.db.Where("survey_id = ?", survey.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	batchID := rows[0].BatchID
	for _, row := range rows {
		if row.Status != model.TokenStatusUnused {
			t.Fatalf("new token not unused: %s", row.Status)
		}
		if row.BatchID != batchID {
			t.Fatal("tokens of one generation must share a batch id")
		}
		if row.ExpiresAt == nil || !row.ExpiresAt.After(time.Now()) {
			t.Fatal("expiry horizon missing or in the past")
		}
	}
}

func TestTokenGenerateUnknownSurvey(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.Generate(context.Background(), uuid.New(), 3, "tester")
	if !errors.Is(err, ErrSurveyNotFound) {
		t.Fatalf("expected ErrSurveyNotFound, got %v", err)
	}
}

func TestTokenTransitionDAG(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, tokens := createSurveyFixture(t, env, 1)
	tokenStr := tokens[0]

	// unused -> submitted skips screening and is illegal.
	_, err := env.tokens.Transition(ctx, tokenStr, model.TokenStatusSubmitted)
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if transitionErr.From != "unused" || transitionErr.To != "submitted" {
		t.Fatalf("wrong transition error: %v", transitionErr)
	}

	if _, err := env.tokens.Transition(ctx, tokenStr, model.TokenStatusPassed); err != nil {
		t.Fatalf("unused -> passed: %v", err)
	}
	if _, err := env.tokens.Transition(ctx, tokenStr, model.TokenStatusSubmitted); err != nil {
		t.Fatalf("passed -> submitted: %v", err)
	}

	// submitted is terminal.
	if _, err := env.tokens.Transition(ctx, tokenStr, model.TokenStatusPassed); !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError out of submitted, got %v", err)
	}
}

func TestTokenTransitionFailedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, tokens := createSurveyFixture(t, env, 1)
	tokenStr := tokens[0]

	if _, err := env.tokens.Transition(ctx, tokenStr, model.TokenStatusFailed); err != nil {
		t.Fatalf("unused -> failed: %v", err)
	}
	_, err := env.tokens.Transition(ctx, tokenStr, model.TokenStatusSubmitted)
	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected TransitionError out of failed, got %v", err)
	}
}

// staleGuardTokenRepo simulates a concurrent writer landing between the
// service's read and its guarded write: the guard never matches.
type staleGuardTokenRepo struct {
	repository.TokenRepository
}

func (r *staleGuardTokenRepo) UpdateStatusGuarded(context.Context, string, model.TokenStatus, model.TokenStatus, time.Time) (bool, error) {
	return false, nil
}

func TestTokenTransitionConcurrentLoser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, tokens := createSurveyFixture(t, env, 1)

	racy := NewTokenService(&staleGuardTokenRepo{TokenRepository: env.tokenRepo}, env.surveyRepo, time.Hour)
	_, err := racy.Transition(ctx, tokens[0], model.TokenStatusPassed)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	// The losing write must not have mutated the row.
	token, err := env.tokens.GetByString(ctx, tokens[0])
	if err != nil {
		t.Fatalf("reload token: %v", err)
	}
	if token.Status != model.TokenStatusUnused {
		t.Fatalf("loser mutated status to %s", token.Status)
	}
}

func TestTokenGuardedUpdateOnlyMatchesObservedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, tokens := createSurveyFixture(t, env, 1)
	now := time.Now().UTC()

	ok, err := env.tokenRepo.UpdateStatusGuarded(ctx, tokens[0], model.TokenStatusUnused, model.TokenStatusPassed, now)
	if err != nil || !ok {
		t.Fatalf("first guard should match: ok=%v err=%v", ok, err)
	}
	// Same precondition again: the row moved on, the guard must miss.
	ok, err = env.tokenRepo.UpdateStatusGuarded(ctx, tokens[0], model.TokenStatusUnused, model.TokenStatusFailed, now)
	if err != nil {
		t.Fatalf("second guard errored: %v", err)
	}
	if ok {
		t.Fatal("guard matched against a stale status")
	}
}

func TestTokenSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	survey, tokens := createSurveyFixture(t, env, 4)

	if _, err := env.tokens.Transition(ctx, tokens[0], model.TokenStatusPassed); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := env.tokens.Transition(ctx, tokens[0], model.TokenStatusSubmitted); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if _, err := env.tokens.Transition(ctx, tokens[1], model.TokenStatusFailed); err != nil {
		t.Fatalf("transition: %v", err)
	}

	summary, err := env.tokens.Summary(ctx, survey.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Unused != 2 || summary.Failed != 1 || summary.Submitted != 1 || summary.Total != 4 {
		t.Fatalf("wrong summary: %+v", summary)
	}
}

func TestTokenExtendExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	survey, _ := createSurveyFixture(t, env, 2)

	var rows []model.Token
	if err := env.db.Where("survey_id = ?", survey.ID).Find(&rows).Error; err != nil {
		t.Fatalf("load rows: %v", err)
	}
	until := time.Now().UTC().Add(90 * 24 * time.Hour).Truncate(time.Second)
	updated, err := env.tokens.ExtendExpiry(ctx, []uuid.UUID{rows[0].ID}, until)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 row updated, got %d", updated)
	}

	reloaded, err := env.tokens.GetByString(ctx, rows[0].Token)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.ExpiresAt == nil || !reloaded.ExpiresAt.Equal(until) {
		t.Fatalf("expiry not extended: %v", reloaded.ExpiresAt)
	}
	// Lifecycle state is untouched by the bulk expiry write.
	if reloaded.Status != model.TokenStatusUnused {
		t.Fatalf("bulk expiry write touched status: %s", reloaded.Status)
	}
}
