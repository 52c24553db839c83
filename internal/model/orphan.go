package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Orphan reasons written by the webhook path.
const (
	OrphanReasonMissingToken           = "missing_token"
	OrphanReasonTokenNotFound          = "token_not_found"
	OrphanReasonConcurrentModification = "concurrent_modification"
)

// OrphanSubmission preserves an inbound event that could not be matched to a
// legal token transition. Append-only; kept for manual reconciliation.
type OrphanSubmission struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Payload   datatypes.JSON `gorm:"column:payload" json:"payload"`
	Reason    string         `gorm:"type:varchar(128);not null;index" json:"reason"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
}

func (OrphanSubmission) TableName() string { return "orphan_submissions" }

func (o *OrphanSubmission) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
