package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Respondent is a denormalized profile keyed by phone number. Later screening
// submissions for the same phone overwrite fields they carry but never erase
// fields they are silent on (sparse-merge upsert).
type Respondent struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Phone     string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"phone"`
	Name      string    `gorm:"type:varchar(255)" json:"name,omitempty"`
	Email     string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	AgeRange  string    `gorm:"type:varchar(32)" json:"age_range,omitempty"`
	Area      string    `gorm:"type:varchar(255)" json:"area,omitempty"`
	Gender    string    `gorm:"type:varchar(16)" json:"gender,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Respondent) TableName() string { return "respondents" }

func (r *Respondent) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
