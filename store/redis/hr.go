package redis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
)

// ── Candidates ──

func (s *Store) CreateCandidate(ctx context.Context, c *hr.Candidate) error {
	cID := c.ID.String()
	return s.putJSON(ctx, candidateKey(cID), candidateIDsKey, cID, c)
}

func (s *Store) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*hr.Candidate, error) {
	var c hr.Candidate
	if err := s.getJSON(ctx, candidateKey(candidateID.String()), &c, hrflow.ErrCandidateNotFound); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCandidate(ctx context.Context, c *hr.Candidate) error {
	c.Touch()
	return s.updateJSON(ctx, candidateKey(c.ID.String()), c, hrflow.ErrCandidateNotFound)
}

func (s *Store) ListCandidates(ctx context.Context, status hr.CandidateStatus) ([]*hr.Candidate, error) {
	ids, err := s.client.SMembers(ctx, candidateIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: list candidates: %w", err)
	}

	var out []*hr.Candidate
	for _, cID := range ids {
		var c hr.Candidate
		if getErr := s.getJSON(ctx, candidateKey(cID), &c, hrflow.ErrCandidateNotFound); getErr != nil {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, &c)
	}
	sortByCreated(out, func(c *hr.Candidate) int64 { return c.CreatedAt.UnixNano() })
	return out, nil
}

// ── Employees ──

func (s *Store) CreateEmployee(ctx context.Context, e *hr.Employee) error {
	eID := e.ID.String()
	return s.putJSON(ctx, employeeKey(eID), employeeIDsKey, eID, e)
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*hr.Employee, error) {
	var e hr.Employee
	if err := s.getJSON(ctx, employeeKey(employeeID.String()), &e, hrflow.ErrEmployeeNotFound); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *hr.Employee) error {
	e.Touch()
	return s.updateJSON(ctx, employeeKey(e.ID.String()), e, hrflow.ErrEmployeeNotFound)
}

// SearchEmployees matches the term case-insensitively against name,
// email and department. An empty term returns all employees.
func (s *Store) SearchEmployees(ctx context.Context, term string) ([]*hr.Employee, error) {
	ids, err := s.client.SMembers(ctx, employeeIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: search employees: %w", err)
	}

	term = strings.ToLower(term)
	var out []*hr.Employee
	for _, eID := range ids {
		var e hr.Employee
		if getErr := s.getJSON(ctx, employeeKey(eID), &e, hrflow.ErrEmployeeNotFound); getErr != nil {
			continue
		}
		if term != "" && !employeeMatches(&e, term) {
			continue
		}
		out = append(out, &e)
	}
	sortByCreated(out, func(e *hr.Employee) int64 { return e.CreatedAt.UnixNano() })
	return out, nil
}

func employeeMatches(e *hr.Employee, term string) bool {
	return strings.Contains(strings.ToLower(e.Name), term) ||
		strings.Contains(strings.ToLower(e.Email), term) ||
		strings.Contains(strings.ToLower(e.Department), term)
}

// ── Job postings ──

func (s *Store) CreatePosting(ctx context.Context, p *hr.JobPosting) error {
	pID := p.ID.String()
	return s.putJSON(ctx, postingKey(pID), postingIDsKey, pID, p)
}

func (s *Store) GetPosting(ctx context.Context, postingID id.PostingID) (*hr.JobPosting, error) {
	var p hr.JobPosting
	if err := s.getJSON(ctx, postingKey(postingID.String()), &p, hrflow.ErrPostingNotFound); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListActivePostings(ctx context.Context) ([]*hr.JobPosting, error) {
	ids, err := s.client.SMembers(ctx, postingIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: list postings: %w", err)
	}

	var out []*hr.JobPosting
	for _, pID := range ids {
		var p hr.JobPosting
		if getErr := s.getJSON(ctx, postingKey(pID), &p, hrflow.ErrPostingNotFound); getErr != nil {
			continue
		}
		if p.Status != hr.PostingActive {
			continue
		}
		out = append(out, &p)
	}
	sortByCreated(out, func(p *hr.JobPosting) int64 { return p.CreatedAt.UnixNano() })
	return out, nil
}

// ── Interviews ──

func (s *Store) CreateInterview(ctx context.Context, iv *hr.Interview) error {
	ivID := iv.ID.String()
	return s.putJSON(ctx, interviewKey(ivID), interviewIDsKey, ivID, iv)
}

func (s *Store) GetInterview(ctx context.Context, interviewID id.InterviewID) (*hr.Interview, error) {
	var iv hr.Interview
	if err := s.getJSON(ctx, interviewKey(interviewID.String()), &iv, hrflow.ErrInterviewNotFound); err != nil {
		return nil, err
	}
	return &iv, nil
}

func (s *Store) UpdateInterview(ctx context.Context, iv *hr.Interview) error {
	iv.Touch()
	return s.updateJSON(ctx, interviewKey(iv.ID.String()), iv, hrflow.ErrInterviewNotFound)
}

// ── Performance reviews ──

func (s *Store) CreateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	rvID := rv.ID.String()
	return s.putJSON(ctx, reviewKey(rvID), reviewIDsKey, rvID, rv)
}

func (s *Store) GetReview(ctx context.Context, reviewID id.ReviewID) (*hr.PerformanceReview, error) {
	var rv hr.PerformanceReview
	if err := s.getJSON(ctx, reviewKey(reviewID.String()), &rv, hrflow.ErrReviewNotFound); err != nil {
		return nil, err
	}
	return &rv, nil
}

func (s *Store) UpdateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	rv.Touch()
	return s.updateJSON(ctx, reviewKey(rv.ID.String()), rv, hrflow.ErrReviewNotFound)
}

func (s *Store) ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*hr.PerformanceReview, error) {
	ids, err := s.client.SMembers(ctx, reviewIDsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hrflow/redis: list reviews: %w", err)
	}

	var out []*hr.PerformanceReview
	for _, rvID := range ids {
		var rv hr.PerformanceReview
		if getErr := s.getJSON(ctx, reviewKey(rvID), &rv, hrflow.ErrReviewNotFound); getErr != nil {
			continue
		}
		if rv.EmployeeID != employeeID {
			continue
		}
		out = append(out, &rv)
	}
	sortByCreated(out, func(rv *hr.PerformanceReview) int64 { return rv.CreatedAt.UnixNano() })
	return out, nil
}

// ── Onboarding ──

func (s *Store) CreateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	obID := ob.ID.String()
	return s.putJSON(ctx, onboardingKey(obID), onboardingIDsKey, obID, ob)
}

func (s *Store) GetOnboarding(ctx context.Context, onboardingID id.OnboardingID) (*hr.OnboardingRecord, error) {
	var ob hr.OnboardingRecord
	if err := s.getJSON(ctx, onboardingKey(onboardingID.String()), &ob, hrflow.ErrOnboardingNotFound); err != nil {
		return nil, err
	}
	return &ob, nil
}

func (s *Store) UpdateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	ob.Touch()
	return s.updateJSON(ctx, onboardingKey(ob.ID.String()), ob, hrflow.ErrOnboardingNotFound)
}

// ── Stats ──

// Stats counts records per kind via set cardinalities.
func (s *Store) Stats(ctx context.Context) (hr.Stats, error) {
	pipe := s.client.Pipeline()
	employees := pipe.SCard(ctx, employeeIDsKey)
	candidates := pipe.SCard(ctx, candidateIDsKey)
	postings := pipe.SCard(ctx, postingIDsKey)
	interviews := pipe.SCard(ctx, interviewIDsKey)
	reviews := pipe.SCard(ctx, reviewIDsKey)
	onboardings := pipe.SCard(ctx, onboardingIDsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return hr.Stats{}, fmt.Errorf("hrflow/redis: stats: %w", err)
	}
	return hr.Stats{
		Employees:   int(employees.Val()),
		Candidates:  int(candidates.Val()),
		Postings:    int(postings.Val()),
		Interviews:  int(interviews.Val()),
		Reviews:     int(reviews.Val()),
		Onboardings: int(onboardings.Val()),
	}, nil
}

func sortByCreated[T any](items []*T, created func(*T) int64) {
	sort.Slice(items, func(i, j int) bool {
		return created(items[i]) < created(items[j])
	})
}
