// Package id defines TypeID-based identity types for all hrflow entities.
//
// Every entity in hrflow uses a single ID struct with a prefix that
// identifies the entity type. IDs are K-sortable (UUIDv7-based), globally
// unique, and URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all hrflow entity types.
const (
	PrefixRun          Prefix = "run"
	PrefixCheckpoint   Prefix = "ckpt"
	PrefixCandidate    Prefix = "cand"
	PrefixEmployee     Prefix = "emp"
	PrefixPosting      Prefix = "posting"
	PrefixInterview    Prefix = "intv"
	PrefixReview       Prefix = "review"
	PrefixOnboarding   Prefix = "onboard"
	PrefixNotification Prefix = "notif"
)

// ID is the primary identifier type for all hrflow entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "run_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// RunID is a type-safe identifier for workflow runs (prefix: "run").
type RunID = ID

// CheckpointID is a type-safe identifier for checkpoints (prefix: "ckpt").
type CheckpointID = ID

// CandidateID is a type-safe identifier for candidates (prefix: "cand").
type CandidateID = ID

// EmployeeID is a type-safe identifier for employees (prefix: "emp").
type EmployeeID = ID

// PostingID is a type-safe identifier for job postings (prefix: "posting").
type PostingID = ID

// InterviewID is a type-safe identifier for interviews (prefix: "intv").
type InterviewID = ID

// ReviewID is a type-safe identifier for performance reviews (prefix: "review").
type ReviewID = ID

// OnboardingID is a type-safe identifier for onboarding records (prefix: "onboard").
type OnboardingID = ID

// NotificationID is a type-safe identifier for notifications (prefix: "notif").
type NotificationID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewRunID generates a new unique run ID.
func NewRunID() ID { return New(PrefixRun) }

// NewCheckpointID generates a new unique checkpoint ID.
func NewCheckpointID() ID { return New(PrefixCheckpoint) }

// NewCandidateID generates a new unique candidate ID.
func NewCandidateID() ID { return New(PrefixCandidate) }

// NewEmployeeID generates a new unique employee ID.
func NewEmployeeID() ID { return New(PrefixEmployee) }

// NewPostingID generates a new unique job posting ID.
func NewPostingID() ID { return New(PrefixPosting) }

// NewInterviewID generates a new unique interview ID.
func NewInterviewID() ID { return New(PrefixInterview) }

// NewReviewID generates a new unique performance review ID.
func NewReviewID() ID { return New(PrefixReview) }

// NewOnboardingID generates a new unique onboarding record ID.
func NewOnboardingID() ID { return New(PrefixOnboarding) }

// NewNotificationID generates a new unique notification ID.
func NewNotificationID() ID { return New(PrefixNotification) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseRunID parses a string and validates the "run" prefix.
func ParseRunID(s string) (ID, error) { return ParseWithPrefix(s, PrefixRun) }

// ParseCheckpointID parses a string and validates the "ckpt" prefix.
func ParseCheckpointID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCheckpoint) }

// ParseCandidateID parses a string and validates the "cand" prefix.
func ParseCandidateID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCandidate) }

// ParseEmployeeID parses a string and validates the "emp" prefix.
func ParseEmployeeID(s string) (ID, error) { return ParseWithPrefix(s, PrefixEmployee) }

// ParsePostingID parses a string and validates the "posting" prefix.
func ParsePostingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixPosting) }

// ParseInterviewID parses a string and validates the "intv" prefix.
func ParseInterviewID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInterview) }

// ParseReviewID parses a string and validates the "review" prefix.
func ParseReviewID(s string) (ID, error) { return ParseWithPrefix(s, PrefixReview) }

// ParseOnboardingID parses a string and validates the "onboard" prefix.
func ParseOnboardingID(s string) (ID, error) { return ParseWithPrefix(s, PrefixOnboarding) }

// ParseNotificationID parses a string and validates the "notif" prefix.
func ParseNotificationID(s string) (ID, error) { return ParseWithPrefix(s, PrefixNotification) }

// ParseAny parses a string into an ID without type checking the prefix.
func ParseAny(s string) (ID, error) { return Parse(s) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}
