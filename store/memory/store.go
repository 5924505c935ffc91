// Package memory provides a fully in-memory store. Safe for concurrent
// access. Intended for unit testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
)

// Ensure Store implements store.Store at compile time.
// We can't import store here (import cycle), so we verify each subsystem.
var (
	_ graph.Store  = (*Store)(nil)
	_ hr.Store     = (*Store)(nil)
	_ notify.Store = (*Store)(nil)
)

// Store is an in-memory implementation of every subsystem store.
type Store struct {
	mu sync.RWMutex

	runs        map[string]*graph.Run
	checkpoints map[string]*graph.Checkpoint // key: "runID:seq"

	candidates  map[string]*hr.Candidate
	employees   map[string]*hr.Employee
	postings    map[string]*hr.JobPosting
	interviews  map[string]*hr.Interview
	reviews     map[string]*hr.PerformanceReview
	onboardings map[string]*hr.OnboardingRecord

	notifications []*notify.Notification
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		runs:        make(map[string]*graph.Run),
		checkpoints: make(map[string]*graph.Checkpoint),
		candidates:  make(map[string]*hr.Candidate),
		employees:   make(map[string]*hr.Employee),
		postings:    make(map[string]*hr.JobPosting),
		interviews:  make(map[string]*hr.Interview),
		reviews:     make(map[string]*hr.PerformanceReview),
		onboardings: make(map[string]*hr.OnboardingRecord),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (m *Store) Migrate(_ context.Context) error { return nil }

// Ping always succeeds for the memory store.
func (m *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Graph Store
// ──────────────────────────────────────────────────

// CreateRun persists a new run.
func (m *Store) CreateRun(_ context.Context, run *graph.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := run.ID.String()
	if _, exists := m.runs[key]; exists {
		return hrflow.ErrRunAlreadyExists
	}
	cp := *run
	m.runs[key] = &cp
	return nil
}

// GetRun retrieves a run by ID.
func (m *Store) GetRun(_ context.Context, runID id.RunID) (*graph.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.runs[runID.String()]
	if !ok {
		return nil, hrflow.ErrRunNotFound
	}
	cp := *r
	return &cp, nil
}

// UpdateRun persists changes to an existing run.
func (m *Store) UpdateRun(_ context.Context, run *graph.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := run.ID.String()
	if _, ok := m.runs[key]; !ok {
		return hrflow.ErrRunNotFound
	}
	cp := *run
	cp.UpdatedAt = time.Now().UTC()
	m.runs[key] = &cp
	return nil
}

// ListRuns returns runs matching the given options, newest first.
func (m *Store) ListRuns(_ context.Context, opts graph.ListOpts) ([]*graph.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*graph.Run, 0, len(m.runs))
	for _, r := range m.runs {
		if opts.State != "" && r.State != opts.State {
			continue
		}
		if opts.Graph != "" && r.Graph != opts.Graph {
			continue
		}
		cp := *r
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.After(result[k].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return nil, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}

	return result, nil
}

// DeleteRun removes a run and all of its checkpoints.
func (m *Store) DeleteRun(_ context.Context, runID id.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := runID.String()
	if _, ok := m.runs[key]; !ok {
		return hrflow.ErrRunNotFound
	}
	delete(m.runs, key)

	prefix := key + ":"
	for k := range m.checkpoints {
		if strings.HasPrefix(k, prefix) {
			delete(m.checkpoints, k)
		}
	}
	return nil
}

// checkpointKey builds a composite map key for a checkpoint.
func checkpointKey(runID id.RunID, seq int) string {
	return fmt.Sprintf("%s:%d", runID, seq)
}

// SaveCheckpoint persists a checkpoint. An existing (RunID, Seq) pair
// is left untouched: the first write wins.
func (m *Store) SaveCheckpoint(_ context.Context, cp *graph.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := checkpointKey(cp.RunID, cp.Seq)
	if _, exists := m.checkpoints[key]; exists {
		return nil
	}
	dup := *cp
	m.checkpoints[key] = &dup
	return nil
}

// LoadLatestCheckpoint returns the highest-seq checkpoint for a run.
func (m *Store) LoadLatestCheckpoint(_ context.Context, runID id.RunID) (*graph.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := runID.String() + ":"
	var latest *graph.Checkpoint
	for k, cp := range m.checkpoints {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if latest == nil || cp.Seq > latest.Seq {
			latest = cp
		}
	}
	if latest == nil {
		return nil, hrflow.ErrNoCheckpoint
	}
	dup := *latest
	return &dup, nil
}

// ListCheckpoints returns all checkpoints for a run ordered by Seq.
func (m *Store) ListCheckpoints(_ context.Context, runID id.RunID) ([]*graph.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := runID.String() + ":"
	var result []*graph.Checkpoint
	for k, cp := range m.checkpoints {
		if strings.HasPrefix(k, prefix) {
			dup := *cp
			result = append(result, &dup)
		}
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].Seq < result[k].Seq
	})

	return result, nil
}

// ──────────────────────────────────────────────────
// HR Store
// ──────────────────────────────────────────────────

// CreateCandidate persists a new candidate.
func (m *Store) CreateCandidate(_ context.Context, c *hr.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *c
	m.candidates[c.ID.String()] = &cp
	return nil
}

// GetCandidate retrieves a candidate by ID.
func (m *Store) GetCandidate(_ context.Context, candidateID id.CandidateID) (*hr.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.candidates[candidateID.String()]
	if !ok {
		return nil, hrflow.ErrCandidateNotFound
	}
	cp := *c
	return &cp, nil
}

// UpdateCandidate persists changes to an existing candidate.
func (m *Store) UpdateCandidate(_ context.Context, c *hr.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := c.ID.String()
	if _, ok := m.candidates[key]; !ok {
		return hrflow.ErrCandidateNotFound
	}
	cp := *c
	cp.UpdatedAt = time.Now().UTC()
	m.candidates[key] = &cp
	return nil
}

// ListCandidates returns candidates filtered by status. An empty status
// returns all candidates.
func (m *Store) ListCandidates(_ context.Context, status hr.CandidateStatus) ([]*hr.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*hr.Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		if status != "" && c.Status != status {
			continue
		}
		cp := *c
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	return result, nil
}

// CreateEmployee persists a new employee.
func (m *Store) CreateEmployee(_ context.Context, e *hr.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.employees[e.ID.String()] = &cp
	return nil
}

// GetEmployee retrieves an employee by ID.
func (m *Store) GetEmployee(_ context.Context, employeeID id.EmployeeID) (*hr.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.employees[employeeID.String()]
	if !ok {
		return nil, hrflow.ErrEmployeeNotFound
	}
	cp := *e
	return &cp, nil
}

// UpdateEmployee persists changes to an existing employee.
func (m *Store) UpdateEmployee(_ context.Context, e *hr.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := e.ID.String()
	if _, ok := m.employees[key]; !ok {
		return hrflow.ErrEmployeeNotFound
	}
	cp := *e
	cp.UpdatedAt = time.Now().UTC()
	m.employees[key] = &cp
	return nil
}

// SearchEmployees returns employees whose name, email, or department
// contains the term, case-insensitively.
func (m *Store) SearchEmployees(_ context.Context, term string) ([]*hr.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(term)
	var result []*hr.Employee
	for _, e := range m.employees {
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Email), needle) ||
			strings.Contains(strings.ToLower(e.Department), needle) {
			cp := *e
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].Name < result[k].Name
	})

	return result, nil
}

// CreatePosting persists a new job posting.
func (m *Store) CreatePosting(_ context.Context, p *hr.JobPosting) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	m.postings[p.ID.String()] = &cp
	return nil
}

// GetPosting retrieves a job posting by ID.
func (m *Store) GetPosting(_ context.Context, postingID id.PostingID) (*hr.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.postings[postingID.String()]
	if !ok {
		return nil, hrflow.ErrPostingNotFound
	}
	cp := *p
	return &cp, nil
}

// ListActivePostings returns postings still accepting applications.
func (m *Store) ListActivePostings(_ context.Context) ([]*hr.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*hr.JobPosting
	for _, p := range m.postings {
		if p.Status == hr.PostingActive {
			cp := *p
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	return result, nil
}

// CreateInterview persists a new interview.
func (m *Store) CreateInterview(_ context.Context, iv *hr.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *iv
	m.interviews[iv.ID.String()] = &cp
	return nil
}

// GetInterview retrieves an interview by ID.
func (m *Store) GetInterview(_ context.Context, interviewID id.InterviewID) (*hr.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	iv, ok := m.interviews[interviewID.String()]
	if !ok {
		return nil, hrflow.ErrInterviewNotFound
	}
	cp := *iv
	return &cp, nil
}

// UpdateInterview persists changes to an existing interview.
func (m *Store) UpdateInterview(_ context.Context, iv *hr.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := iv.ID.String()
	if _, ok := m.interviews[key]; !ok {
		return hrflow.ErrInterviewNotFound
	}
	cp := *iv
	cp.UpdatedAt = time.Now().UTC()
	m.interviews[key] = &cp
	return nil
}

// CreateReview persists a new performance review.
func (m *Store) CreateReview(_ context.Context, rv *hr.PerformanceReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *rv
	m.reviews[rv.ID.String()] = &cp
	return nil
}

// GetReview retrieves a performance review by ID.
func (m *Store) GetReview(_ context.Context, reviewID id.ReviewID) (*hr.PerformanceReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rv, ok := m.reviews[reviewID.String()]
	if !ok {
		return nil, hrflow.ErrReviewNotFound
	}
	cp := *rv
	return &cp, nil
}

// UpdateReview persists changes to an existing performance review.
func (m *Store) UpdateReview(_ context.Context, rv *hr.PerformanceReview) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rv.ID.String()
	if _, ok := m.reviews[key]; !ok {
		return hrflow.ErrReviewNotFound
	}
	cp := *rv
	cp.UpdatedAt = time.Now().UTC()
	m.reviews[key] = &cp
	return nil
}

// ListEmployeeReviews returns all reviews for an employee, oldest first.
func (m *Store) ListEmployeeReviews(_ context.Context, employeeID id.EmployeeID) ([]*hr.PerformanceReview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*hr.PerformanceReview
	for _, rv := range m.reviews {
		if rv.EmployeeID == employeeID {
			cp := *rv
			result = append(result, &cp)
		}
	}

	sort.Slice(result, func(i, k int) bool {
		return result[i].CreatedAt.Before(result[k].CreatedAt)
	})

	return result, nil
}

// CreateOnboarding persists a new onboarding record.
func (m *Store) CreateOnboarding(_ context.Context, ob *hr.OnboardingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *ob
	cp.Checklist = append([]hr.ChecklistTask(nil), ob.Checklist...)
	m.onboardings[ob.ID.String()] = &cp
	return nil
}

// GetOnboarding retrieves an onboarding record by ID.
func (m *Store) GetOnboarding(_ context.Context, onboardingID id.OnboardingID) (*hr.OnboardingRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ob, ok := m.onboardings[onboardingID.String()]
	if !ok {
		return nil, hrflow.ErrOnboardingNotFound
	}
	cp := *ob
	cp.Checklist = append([]hr.ChecklistTask(nil), ob.Checklist...)
	return &cp, nil
}

// UpdateOnboarding persists changes to an existing onboarding record.
func (m *Store) UpdateOnboarding(_ context.Context, ob *hr.OnboardingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ob.ID.String()
	if _, ok := m.onboardings[key]; !ok {
		return hrflow.ErrOnboardingNotFound
	}
	cp := *ob
	cp.Checklist = append([]hr.ChecklistTask(nil), ob.Checklist...)
	cp.UpdatedAt = time.Now().UTC()
	m.onboardings[key] = &cp
	return nil
}

// Stats counts records per kind.
func (m *Store) Stats(_ context.Context) (hr.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return hr.Stats{
		Employees:   len(m.employees),
		Candidates:  len(m.candidates),
		Postings:    len(m.postings),
		Interviews:  len(m.interviews),
		Reviews:     len(m.reviews),
		Onboardings: len(m.onboardings),
	}, nil
}

// ──────────────────────────────────────────────────
// Notify Store
// ──────────────────────────────────────────────────

// RecordNotification persists a sent notification.
func (m *Store) RecordNotification(_ context.Context, n *notify.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *n
	m.notifications = append(m.notifications, &cp)
	return nil
}

// ListNotifications returns notifications for a recipient, oldest first.
func (m *Store) ListNotifications(_ context.Context, recipient string) ([]*notify.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*notify.Notification
	for _, n := range m.notifications {
		if recipient != "" && n.Recipient != recipient {
			continue
		}
		cp := *n
		result = append(result, &cp)
	}
	return result, nil
}
