package model

import "gorm.io/gorm"

// AutoMigrate runs GORM auto-migration for all models and creates custom indexes.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Template{},
		&Survey{},
		&Token{},
		&Submission{},
		&OrphanSubmission{},
		&Respondent{},
		&User{},
	); err != nil {
		return err
	}

	// Composite index for per-survey funnel counts and filtered token listings.
	return db.Exec(
		"CREATE INDEX IF NOT EXISTS idx_tokens_survey_status ON tokens (survey_id, status)",
	).Error
}
