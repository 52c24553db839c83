package service

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

func testDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	return db
}

// testEnv wires the full service graph against one in-memory database.
type testEnv struct {
	db *gorm.DB

	templateRepo   repository.TemplateRepository
	surveyRepo     repository.SurveyRepository
	tokenRepo      repository.TokenRepository
	submissionRepo repository.SubmissionRepository
	orphanRepo     repository.OrphanRepository
	respondentRepo repository.RespondentRepository

	templates TemplateService
	surveys   SurveyService
	tokens    TokenService
	screening ScreeningService
	webhook   WebhookService
	analytics AnalyticsService
}

func newTestEnv(tb testing.TB) *testEnv {
	tb.Helper()

	db := testDB(tb)
	env := &testEnv{
		db:             db,
		templateRepo:   repository.NewPGTemplateRepository(db),
		surveyRepo:     repository.NewPGSurveyRepository(db),
		tokenRepo:      repository.NewPGTokenRepository(db),
		submissionRepo: repository.NewPGSubmissionRepository(db),
		orphanRepo:     repository.NewPGOrphanRepository(db),
		respondentRepo: repository.NewPGRespondentRepository(db),
	}

	logger := zap.NewNop()
	env.templates = NewTemplateService(env.templateRepo)
	env.tokens = NewTokenService(env.tokenRepo, env.surveyRepo, 30*24*time.Hour)
	env.surveys = NewSurveyService(env.surveyRepo, env.templateRepo, env.tokens)
	env.screening = NewScreeningService(
		env.tokens, env.surveyRepo, env.templateRepo, env.submissionRepo, env.respondentRepo,
		true, logger,
	)
	env.webhook = NewWebhookService(env.tokens, env.submissionRepo, env.orphanRepo, logger)
	env.analytics = NewAnalyticsService(env.tokenRepo, env.surveyRepo, env.submissionRepo, env.orphanRepo)
	return env
}
