// Package state defines the mutable workflow state threaded through the
// steps of a run, plus snapshot serialization for checkpointing.
package state

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FieldError reports access to a state field that is not present.
// It is never retried by the runner; it surfaces to the caller as-is.
type FieldError struct {
	Field string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("state: field %q not found", e.Field)
}

// State is the shared mutable record threaded through every step of one
// workflow run. The run identifier is fixed at construction; fields are
// append/overwrite only — there is deliberately no delete operation, so
// the audit history of a run is never erased.
//
// State is safe for concurrent use; parallel branches operate on clones
// (see Clone) that are merged back by the runner.
type State struct {
	runID string

	mu     sync.RWMutex
	fields map[string]any
	dirty  bool
}

// New creates a State for the given run with an initial payload.
// The initial payload does not mark the state dirty: a run that executes
// no state-changing step produces no redundant checkpoints.
func New(runID string, initial map[string]any) *State {
	fields := make(map[string]any, len(initial))
	for k, v := range initial {
		fields[k] = v
	}
	return &State{runID: runID, fields: fields}
}

// RunID returns the immutable run identifier this state belongs to.
func (s *State) RunID() string { return s.runID }

// Get returns the value of a field. It fails with a *FieldError when the
// field is absent.
func (s *State) Get(field string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.fields[field]
	if !ok {
		return nil, &FieldError{Field: field}
	}
	return v, nil
}

// GetDefault returns the value of a field, or def when absent.
func (s *State) GetDefault(field string, def any) any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.fields[field]; ok {
		return v
	}
	return def
}

// GetString returns a field as a string. It fails with a *FieldError when
// the field is absent or holds a non-string value.
func (s *State) GetString(field string) (string, error) {
	v, err := s.Get(field)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", &FieldError{Field: field}
	}
	return str, nil
}

// Has reports whether a field is present.
func (s *State) Has(field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.fields[field]
	return ok
}

// Set writes a field. The write is visible to the next step and marks the
// state dirty so the checkpoint mechanism knows a snapshot is due.
func (s *State) Set(field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields[field] = value
	s.dirty = true
}

// Append adds a value to a slice-valued field, creating the field when
// absent. It is the idiom for accumulating audit entries (messages,
// notifications) without ever deleting history.
func (s *State) Append(field string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _ := s.fields[field].([]any)
	s.fields[field] = append(existing, value)
	s.dirty = true
}

// Dirty reports whether the state changed since the last ClearDirty.
func (s *State) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.dirty
}

// ClearDirty resets the dirty flag. Called by the runner after a
// successful checkpoint write.
func (s *State) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dirty = false
}

// Fields returns a shallow copy of all fields.
func (s *State) Fields() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of this state sharing the run ID.
// The clone starts clean regardless of the source's dirty flag, so a
// parallel branch that writes nothing contributes no checkpoint pressure.
func (s *State) Clone() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fields := make(map[string]any, len(s.fields))
	for k, v := range s.fields {
		fields[k] = v
	}
	return &State{runID: s.runID, fields: fields}
}

// Merge folds another state's fields into this one. On conflict the
// other state wins — the runner merges parallel branches in declaration
// order, so the later-declared branch wins on field conflict.
func (s *State) Merge(other *State) {
	fields := other.Fields()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range fields {
		s.fields[k] = v
	}
	if other.Dirty() {
		s.dirty = true
	}
}

// Snapshot serializes the fields to JSON for checkpoint storage.
func (s *State) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.Marshal(s.fields)
	if err != nil {
		return nil, fmt.Errorf("state: snapshot run %s: %w", s.runID, err)
	}
	return data, nil
}

// Restore builds a State for runID from a checkpoint snapshot produced
// by Snapshot. The restored state starts clean.
func Restore(runID string, snapshot []byte) (*State, error) {
	fields := make(map[string]any)
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &fields); err != nil {
			return nil, fmt.Errorf("state: restore run %s: %w", runID, err)
		}
	}
	return &State{runID: runID, fields: fields}, nil
}
