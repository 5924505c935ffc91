package hrflow

import "errors"

var (
	// Store errors.
	ErrNoStore         = errors.New("hrflow: no store configured")
	ErrStoreClosed     = errors.New("hrflow: store closed")
	ErrMigrationFailed = errors.New("hrflow: migration failed")

	// Not found errors.
	ErrRunNotFound        = errors.New("hrflow: run not found")
	ErrGraphNotFound      = errors.New("hrflow: graph not found")
	ErrStepNotFound       = errors.New("hrflow: step not found")
	ErrNoCheckpoint       = errors.New("hrflow: no checkpoint for run")
	ErrCandidateNotFound  = errors.New("hrflow: candidate not found")
	ErrEmployeeNotFound   = errors.New("hrflow: employee not found")
	ErrPostingNotFound    = errors.New("hrflow: job posting not found")
	ErrInterviewNotFound  = errors.New("hrflow: interview not found")
	ErrReviewNotFound     = errors.New("hrflow: performance review not found")
	ErrOnboardingNotFound = errors.New("hrflow: onboarding record not found")

	// Conflict errors.
	ErrRunAlreadyExists = errors.New("hrflow: run already exists")
	ErrDuplicateStep    = errors.New("hrflow: duplicate step name")
	ErrDuplicateGraph   = errors.New("hrflow: duplicate graph name")

	// State errors.
	ErrInvalidState       = errors.New("hrflow: invalid state transition")
	ErrMaxRetriesExceeded = errors.New("hrflow: max retries exceeded")
	ErrRunCancelled       = errors.New("hrflow: run cancelled")
)
