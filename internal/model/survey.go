package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SurveyStatus string

const (
	SurveyStatusDraft  SurveyStatus = "draft"
	SurveyStatusActive SurveyStatus = "active"
	SurveyStatusClosed SurveyStatus = "closed"
)

// surveyTransitions is the forward-only lifecycle: draft -> active -> closed.
var surveyTransitions = map[SurveyStatus][]SurveyStatus{
	SurveyStatusDraft:  {SurveyStatusActive, SurveyStatusClosed},
	SurveyStatusActive: {SurveyStatusClosed},
	SurveyStatusClosed: {},
}

func (s SurveyStatus) CanTransitionTo(target SurveyStatus) bool {
	for _, t := range surveyTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s SurveyStatus) Valid() bool {
	switch s {
	case SurveyStatusDraft, SurveyStatusActive, SurveyStatusClosed:
		return true
	}
	return false
}

// Survey carries an immutable snapshot of its template's content, captured at
// creation time. TemplateVersion and the three snapshot columns are never
// re-derived from the live template; once the survey leaves draft, status is
// the only mutable field. GeneratedTokens is an advisory cache for operators;
// token rows are the source of truth.
type Survey struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyName       string         `gorm:"type:varchar(255);not null" json:"company_name"`
	TemplateID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"template_id"`
	TemplateVersion   int            `gorm:"not null" json:"template_version"`
	SnapshotSchema    datatypes.JSON `gorm:"column:template_snapshot_schema" json:"template_snapshot_schema"`
	SnapshotQuestions datatypes.JSON `gorm:"column:template_snapshot_questions" json:"template_snapshot_questions"`
	SnapshotLayer2    datatypes.JSON `gorm:"column:template_snapshot_l2" json:"template_snapshot_l2"`
	Customizations    datatypes.JSON `gorm:"column:customizations" json:"customizations"`
	Layer1Rules       datatypes.JSON `gorm:"column:layer1_rules" json:"layer1_rules"`
	GoogleFormID      string         `gorm:"type:varchar(128)" json:"google_form_id"`
	GoogleFormURL     string         `gorm:"type:varchar(512)" json:"google_form_url"`
	Status            SurveyStatus   `gorm:"type:varchar(16);not null;default:'draft';index" json:"status"`
	LinkCount         int            `gorm:"not null;default:0" json:"link_count"`
	GeneratedTokens   datatypes.JSON `gorm:"column:generated_tokens" json:"generated_tokens,omitempty"`
	IsDeleted         bool           `gorm:"not null;default:false;index" json:"is_deleted"`
	CreatedAt         time.Time      `json:"created_at"`
}

func (Survey) TableName() string { return "surveys" }

func (s *Survey) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
