package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
)

// GatewayPayload is what a respondent's browser receives when opening a
// survey link: the survey's frozen snapshot plus presentation extras.
type GatewayPayload struct {
	CompanyName     string           `json:"company_name"`
	Customizations  datatypes.JSON   `json:"customizations"`
	Layer1Rules     datatypes.JSON   `json:"layer1_rules"`
	TemplateName    string           `json:"template_name"`
	Questions       []map[string]any `json:"questions"`
	Layer2Questions datatypes.JSON   `json:"layer2_questions"`
	Schema          datatypes.JSON   `json:"schema"`
	GoogleFormURL   string           `json:"google_form_url"`
}

// Layer1Result is the screening outcome returned to the respondent.
type Layer1Result struct {
	Passed        bool   `json:"passed"`
	Message       string `json:"message,omitempty"`
	Reason        string `json:"reason,omitempty"`
	GoogleFormURL string `json:"google_form_url,omitempty"`
	Token         string `json:"token,omitempty"`
}

type ScreeningService interface {
	// SurveyForToken resolves a token to its survey's gateway payload and
	// records the visit. Finalized, failed and expired-unused tokens are
	// rejected without mutating stored status.
	SurveyForToken(ctx context.Context, tokenStr string) (*GatewayPayload, error)
	// EvaluateLayer1 validates answers against the snapshot's correct answers
	// and drives the token to passed or failed through the guarded transition.
	EvaluateLayer1(ctx context.Context, tokenStr string, answers map[string]any, phone string) (*Layer1Result, error)
	// SubmitLayer2 finalizes a token from the in-app evaluation flow:
	// transition first, payload recorded only after the guard succeeds.
	SubmitLayer2(ctx context.Context, tokenStr string, answers map[string]any) error
}

type screeningService struct {
	tokens         TokenService
	surveyRepo     repository.SurveyRepository
	templateRepo   repository.TemplateRepository
	submissionRepo repository.SubmissionRepository
	respondentRepo repository.RespondentRepository
	injectDefaults bool
	logger         *zap.Logger
}

func NewScreeningService(
	tokens TokenService,
	surveyRepo repository.SurveyRepository,
	templateRepo repository.TemplateRepository,
	submissionRepo repository.SubmissionRepository,
	respondentRepo repository.RespondentRepository,
	injectDefaults bool,
	logger *zap.Logger,
) ScreeningService {
	return &screeningService{
		tokens:         tokens,
		surveyRepo:     surveyRepo,
		templateRepo:   templateRepo,
		submissionRepo: submissionRepo,
		respondentRepo: respondentRepo,
		injectDefaults: injectDefaults,
		logger:         logger,
	}
}

// accessibleToken loads a token and rejects lifecycle states a respondent may
// not act on. Expiry is advisory: an expired unused token is inaccessible but
// its stored status is left untouched.
func (s *screeningService) accessibleToken(ctx context.Context, tokenStr string) (*model.Token, error) {
	token, err := s.tokens.GetByString(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	switch token.Status {
	case model.TokenStatusSubmitted:
		return nil, ErrTokenFinalized
	case model.TokenStatusFailed:
		return nil, ErrTokenFailed
	}
	if token.Status == model.TokenStatusUnused && token.Expired(time.Now().UTC()) {
		return nil, ErrTokenExpired
	}
	return token, nil
}

func (s *screeningService) SurveyForToken(ctx context.Context, tokenStr string) (*GatewayPayload, error) {
	token, err := s.accessibleToken(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.RecordAccess(ctx, tokenStr); err != nil {
		s.logger.Warn("record access failed", zap.String("token", tokenStr), zap.Error(err))
	}

	survey, err := s.surveyRepo.GetByID(ctx, token.SurveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("load survey: %w", err)
	}

	// Template lookup is best-effort: it backs the display name and the
	// fallback for surveys created before snapshotting existed.
	var template *model.Template
	if t, err := s.templateRepo.GetByID(ctx, survey.TemplateID); err == nil {
		template = t
	}

	questions := decodeQuestions(survey.SnapshotQuestions)
	if len(questions) == 0 && template != nil {
		s.logger.Info("gateway fallback: extracting questions from live template",
			zap.String("survey_id", survey.ID.String()),
			zap.String("template", template.Name))
		questions = ExtractLayer1Questions(template)
	}

	schema := survey.SnapshotSchema
	if isEmptyJSON(schema) && template != nil {
		schema = Layer1Schema(template)
	}

	layer2 := survey.SnapshotLayer2
	if isEmptyJSON(layer2) && template != nil {
		layer2 = orEmptyObject(template.Layer2Structure)
	}

	if s.injectDefaults {
		questions = injectDefaultQuestions(questions)
	}
	fillMissingLabels(questions)

	templateName := "Active Study"
	if template != nil {
		templateName = template.Name
	}

	return &GatewayPayload{
		CompanyName:     survey.CompanyName,
		Customizations:  survey.Customizations,
		Layer1Rules:     survey.Layer1Rules,
		TemplateName:    templateName,
		Questions:       questions,
		Layer2Questions: layer2,
		Schema:          orEmptyObject(schema),
		GoogleFormURL:   survey.GoogleFormURL,
	}, nil
}

func (s *screeningService) EvaluateLayer1(ctx context.Context, tokenStr string, answers map[string]any, phone string) (*Layer1Result, error) {
	token, err := s.accessibleToken(ctx, tokenStr)
	if err != nil {
		return nil, err
	}

	survey, err := s.surveyRepo.GetByID(ctx, token.SurveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, fmt.Errorf("load survey: %w", err)
	}

	reason := firstMismatch(decodeQuestions(survey.SnapshotQuestions), answers)
	if reason != "" {
		if _, err := s.tokens.Transition(ctx, tokenStr, model.TokenStatusFailed); err != nil {
			return nil, err
		}
		s.stampToken(ctx, tokenStr, phone, false)
		s.logger.Warn("screening failed",
			zap.String("token", tokenStr),
			zap.String("reason", reason))
		return &Layer1Result{
			Passed:  false,
			Message: "You do not qualify for this study.",
			Reason:  reason,
		}, nil
	}

	if _, err := s.tokens.Transition(ctx, tokenStr, model.TokenStatusPassed); err != nil {
		return nil, err
	}
	s.stampToken(ctx, tokenStr, phone, true)

	// Answer payload is recorded strictly after the guarded transition.
	if err := s.recordSubmission(ctx, survey.ID, tokenStr, phone, answers, model.SubmissionSourceLayer1); err != nil {
		return nil, err
	}
	s.upsertRespondent(ctx, phone, answers)

	return &Layer1Result{
		Passed:        true,
		GoogleFormURL: survey.GoogleFormURL,
		Token:         tokenStr,
	}, nil
}

func (s *screeningService) SubmitLayer2(ctx context.Context, tokenStr string, answers map[string]any) error {
	token, err := s.tokens.Transition(ctx, tokenStr, model.TokenStatusSubmitted)
	if err != nil {
		return err
	}
	return s.recordSubmission(ctx, token.SurveyID, tokenStr, token.Phone, answers, model.SubmissionSourceLayer2)
}

// firstMismatch walks the snapshot questions in order and returns a reason
// naming the first question whose declared correct answer the submission
// misses. Empty means the screening passed.
func firstMismatch(questions []map[string]any, answers map[string]any) string {
	for _, q := range questions {
		correct, declared := q["correct_answer"]
		if !declared || correct == nil {
			continue
		}
		id, _ := q["id"].(string)
		got := answers[id]
		if !reflect.DeepEqual(got, correct) {
			return fmt.Sprintf("question %s: expected '%v', got '%v'", id, correct, got)
		}
	}
	return ""
}

func (s *screeningService) stampToken(ctx context.Context, tokenStr, phone string, passed bool) {
	if err := s.tokens.StampScreening(ctx, tokenStr, phone, passed); err != nil {
		s.logger.Warn("stamp token fields failed", zap.String("token", tokenStr), zap.Error(err))
	}
}

func (s *screeningService) recordSubmission(ctx context.Context, surveyID uuid.UUID, tokenStr, phone string, answers map[string]any, source string) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	submission := &model.Submission{
		SurveyID:    surveyID,
		Token:       tokenStr,
		Phone:       phone,
		Answers:     raw,
		Source:      source,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// upsertRespondent sparse-merges profile data out of the screening answers.
// Failures are logged, never surfaced; the respondent profile is derived data.
func (s *screeningService) upsertRespondent(ctx context.Context, phone string, answers map[string]any) {
	if phone == "" {
		return
	}
	fields := map[string]string{
		"name":      firstString(answers, "name", "Full Name"),
		"email":     firstString(answers, "email", "Email Address"),
		"age_range": firstString(answers, "Age Range", "age_auto"),
		"area":      firstString(answers, "area", "Area"),
		"gender":    firstString(answers, "gender", "gender_auto", "Gender"),
	}
	for k, v := range fields {
		if v == "" {
			delete(fields, k)
		}
	}
	if err := s.respondentRepo.UpsertSparse(ctx, phone, fields); err != nil {
		s.logger.Error("respondent upsert failed", zap.String("phone", phone), zap.Error(err))
	}
}

func firstString(answers map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := answers[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func decodeQuestions(raw datatypes.JSON) []map[string]any {
	var questions []map[string]any
	_ = json.Unmarshal(raw, &questions)
	return questions
}
