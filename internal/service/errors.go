package service

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound       = errors.New("template not found")
	ErrTemplateDeleted        = errors.New("template is deleted")
	ErrDuplicateTemplateName  = errors.New("template with this name already exists")
	ErrSurveyNotFound         = errors.New("survey not found")
	ErrEditLocked             = errors.New("survey is no longer editable; only status transitions are allowed")
	ErrFormIDImmutable        = errors.New("google form id is immutable once survey is active")
	ErrTokenNotFound          = errors.New("token not found")
	ErrTokenExpired           = errors.New("token has expired")
	ErrTokenFinalized         = errors.New("survey already completed for this link")
	ErrTokenFailed            = errors.New("screening already failed for this link")
	ErrConcurrentModification = errors.New("state transition failed due to concurrent update")
	ErrMissingToken           = errors.New("token missing from payload")
	ErrInvalidStatus          = errors.New("unknown status value")
	ErrUsernameTaken          = errors.New("username already registered")
	ErrInvalidCredentials     = errors.New("incorrect username or password")
	ErrUserNotFound           = errors.New("user not found")
	ErrUserDisabled           = errors.New("user is disabled")
)

// TransitionError reports a requested state change that the transition table
// does not permit, naming source and target.
type TransitionError struct {
	Entity string // "token" or "survey"
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}
