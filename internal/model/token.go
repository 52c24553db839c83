package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenStatus string

const (
	TokenStatusUnused    TokenStatus = "unused"
	TokenStatusPassed    TokenStatus = "passed"
	TokenStatusFailed    TokenStatus = "failed"
	TokenStatusSubmitted TokenStatus = "submitted"
)

// tokenTransitions is the lifecycle DAG. failed and submitted are terminal;
// no edge ever leads back to unused.
var tokenTransitions = map[TokenStatus][]TokenStatus{
	TokenStatusUnused: {TokenStatusPassed, TokenStatusFailed},
	TokenStatusPassed: {TokenStatusSubmitted},
}

func (s TokenStatus) CanTransitionTo(target TokenStatus) bool {
	for _, t := range tokenTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Token is a single-use access credential for one survey. Status is mutated
// only through the guarded conditional update in the token repository; rows
// are never deleted, expiry is a timestamp comparison.
type Token struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SurveyID     uuid.UUID   `gorm:"type:uuid;not null;index" json:"survey_id"`
	Token        string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"token"`
	Phone        string      `gorm:"type:varchar(32)" json:"phone,omitempty"`
	Status       TokenStatus `gorm:"type:varchar(16);not null;default:'unused';index" json:"status"`
	Layer1Passed bool        `gorm:"not null;default:false" json:"layer1_passed"`
	BatchID      string      `gorm:"type:varchar(16);index" json:"batch_id"`
	CreatedBy    string      `gorm:"type:varchar(255)" json:"created_by"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	ExpiresAt    *time.Time  `json:"expires_at,omitempty"`
	LastAccessed *time.Time  `gorm:"index" json:"last_accessed,omitempty"`
}

func (Token) TableName() string { return "tokens" }

func (t *Token) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the token's expiry horizon has passed. Expiry is
// advisory: callers treat an expired unused token as inaccessible without
// mutating its stored status.
func (t *Token) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
