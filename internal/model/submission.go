package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SubmissionSourceLayer1 = "layer1"
	SubmissionSourceLayer2 = "layer2"
)

// Submission is an append-only raw answer payload, written once per accepted
// token transition that carries answers. The row is always inserted after its
// guarded transition succeeded, never before.
type Submission struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SurveyID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"survey_id"`
	Token       string         `gorm:"type:varchar(64);not null;index" json:"token"`
	Phone       string         `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Answers     datatypes.JSON `gorm:"column:answers" json:"answers"`
	Source      string         `gorm:"type:varchar(16);not null;index" json:"source"`
	SubmittedAt time.Time      `gorm:"index" json:"submitted_at"`
}

func (Submission) TableName() string { return "submissions" }

func (s *Submission) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
