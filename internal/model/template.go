package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is one immutable version of a question template. Versions for a
// name form a dense sequence starting at 1; edits and rollbacks append new
// versions and never touch existing rows. The (name, version) unique index is
// what rejects the loser when two concurrent edits resolve the same latest
// version.
type Template struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_templates_name_version" json:"name"`
	Type            string         `gorm:"type:varchar(64);not null;default:''" json:"type"`
	Version         int            `gorm:"not null;uniqueIndex:idx_templates_name_version" json:"version"`
	IsDeleted       bool           `gorm:"not null;default:false;index" json:"is_deleted"`
	Layer1Schema    datatypes.JSON `gorm:"column:layer1_question_schema" json:"layer1_question_schema"`
	Layer1Questions datatypes.JSON `gorm:"column:layer1_questions" json:"layer1_questions"`
	Layer1Structure datatypes.JSON `gorm:"column:layer1_structure" json:"layer1_structure"`
	Layer2Structure datatypes.JSON `gorm:"column:layer2_structure" json:"layer2_structure"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (Template) TableName() string { return "templates" }

func (t *Template) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
