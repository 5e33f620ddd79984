package domain

import (
	"fmt"
	"time"
)

// Error is a constant sentinel error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrNotFound  Error = "not found"
	ErrDuplicate Error = "duplicate key"
)

// Machine-readable error codes returned to callers.
const (
	CodeInvalidJSONBody        = "invalid_json_body"
	CodeMissingSpecialty       = "missing_specialty"
	CodeNonIntegerScore        = "correct_total_must_be_integers"
	CodeInvalidScoreBounds     = "invalid_score_bounds"
	CodeDurationInvalid        = "duration_ms_invalid"
	CodeOpponentRatingInvalid  = "opponent_rating_invalid"
	CodeMissingIDToken         = "missing_id_token"
	CodeInvalidIDToken         = "invalid_id_token"
	CodeRateLimited            = "rate_limited"
	CodeStoreFailure           = "store_failure"
	CodeInvalidQueryParameters = "invalid_query"
)

// ValidationError is malformed or out-of-policy input. It is always
// reported before any store access.
type ValidationError struct {
	Code    string
	Message string
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IdentityError is a missing or unverifiable credential.
type IdentityError struct {
	Code string
	Err  error
}

func NewIdentityError(code string, err error) *IdentityError {
	return &IdentityError{Code: code, Err: err}
}

func (e *IdentityError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// Step names the store operation a StoreError came from.
type Step string

const (
	StepLookupPlayer        Step = "lookup_player"
	StepLookupEmail         Step = "lookup_email"
	StepInsertPlayer        Step = "insert_player"
	StepRereadPlayer        Step = "reread_player"
	StepInsertGameSession   Step = "insert_game_session"
	StepInsertRatingHistory Step = "insert_rating_history"
	StepUpdateRating        Step = "update_rating"
	StepRead                Step = "read"
)

// StoreError is any failure of the player or audit store, tagged with the step.
// Writes committed before the failing step are not rolled back.
type StoreError struct {
	Step Step
	Err  error
}

func NewStoreError(step Step, err error) *StoreError {
	return &StoreError{Step: step, Err: err}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// RateLimitError means the caller exhausted its window.
type RateLimitError struct {
	Remaining int
	Reset     time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.Reset.Format(time.RFC3339))
}
