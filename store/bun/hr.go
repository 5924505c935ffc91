package bunstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
)

// ── Candidates ──

func (s *Store) CreateCandidate(ctx context.Context, c *hr.Candidate) error {
	m, err := toCandidateModel(c)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: create candidate: %w", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*hr.Candidate, error) {
	m := new(candidateModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", candidateID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get candidate: %w", err)
	}
	return fromCandidateModel(m)
}

func (s *Store) UpdateCandidate(ctx context.Context, c *hr.Candidate) error {
	m, err := toCandidateModel(c)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: update candidate: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrCandidateNotFound
	}
	return nil
}

func (s *Store) ListCandidates(ctx context.Context, status hr.CandidateStatus) ([]*hr.Candidate, error) {
	var models []candidateModel
	q := s.db.NewSelect().Model(&models)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("hrflow/bun: list candidates: %w", err)
	}

	out := make([]*hr.Candidate, 0, len(models))
	for i := range models {
		c, convErr := fromCandidateModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: list candidates convert: %w", convErr)
		}
		out = append(out, c)
	}
	return out, nil
}

// ── Employees ──

func (s *Store) CreateEmployee(ctx context.Context, e *hr.Employee) error {
	if _, err := s.db.NewInsert().Model(toEmployeeModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*hr.Employee, error) {
	m := new(employeeModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", employeeID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get employee: %w", err)
	}
	return fromEmployeeModel(m)
}

func (s *Store) UpdateEmployee(ctx context.Context, e *hr.Employee) error {
	m := toEmployeeModel(e)
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: update employee: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrEmployeeNotFound
	}
	return nil
}

// SearchEmployees matches the term case-insensitively against name,
// email and department. An empty term returns all employees.
func (s *Store) SearchEmployees(ctx context.Context, term string) ([]*hr.Employee, error) {
	var models []employeeModel
	q := s.db.NewSelect().Model(&models)
	if term != "" {
		pattern := "%" + term + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("LOWER(name) LIKE LOWER(?)", pattern).
				WhereOr("LOWER(email) LIKE LOWER(?)", pattern).
				WhereOr("LOWER(department) LIKE LOWER(?)", pattern)
		})
	}
	if err := q.Order("created_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("hrflow/bun: search employees: %w", err)
	}

	out := make([]*hr.Employee, 0, len(models))
	for i := range models {
		e, convErr := fromEmployeeModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: search employees convert: %w", convErr)
		}
		out = append(out, e)
	}
	return out, nil
}

// ── Job postings ──

func (s *Store) CreatePosting(ctx context.Context, p *hr.JobPosting) error {
	m, err := toPostingModel(p)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: create posting: %w", err)
	}
	return nil
}

func (s *Store) GetPosting(ctx context.Context, postingID id.PostingID) (*hr.JobPosting, error) {
	m := new(postingModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", postingID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrPostingNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get posting: %w", err)
	}
	return fromPostingModel(m)
}

func (s *Store) ListActivePostings(ctx context.Context) ([]*hr.JobPosting, error) {
	var models []postingModel
	err := s.db.NewSelect().Model(&models).
		Where("status = ?", string(hr.PostingActive)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: list postings: %w", err)
	}

	out := make([]*hr.JobPosting, 0, len(models))
	for i := range models {
		p, convErr := fromPostingModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: list postings convert: %w", convErr)
		}
		out = append(out, p)
	}
	return out, nil
}

// ── Interviews ──

func (s *Store) CreateInterview(ctx context.Context, iv *hr.Interview) error {
	if _, err := s.db.NewInsert().Model(toInterviewModel(iv)).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: create interview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, interviewID id.InterviewID) (*hr.Interview, error) {
	m := new(interviewModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", interviewID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrInterviewNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get interview: %w", err)
	}
	return fromInterviewModel(m)
}

func (s *Store) UpdateInterview(ctx context.Context, iv *hr.Interview) error {
	m := toInterviewModel(iv)
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: update interview: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrInterviewNotFound
	}
	return nil
}

// ── Performance reviews ──

func (s *Store) CreateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	m, err := toReviewModel(rv)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: create review: %w", err)
	}
	return nil
}

func (s *Store) GetReview(ctx context.Context, reviewID id.ReviewID) (*hr.PerformanceReview, error) {
	m := new(reviewModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", reviewID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrReviewNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get review: %w", err)
	}
	return fromReviewModel(m)
}

func (s *Store) UpdateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	m, err := toReviewModel(rv)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: update review: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrReviewNotFound
	}
	return nil
}

func (s *Store) ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*hr.PerformanceReview, error) {
	var models []reviewModel
	err := s.db.NewSelect().Model(&models).
		Where("employee_id = ?", employeeID.String()).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: list reviews: %w", err)
	}

	out := make([]*hr.PerformanceReview, 0, len(models))
	for i := range models {
		rv, convErr := fromReviewModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("hrflow/bun: list reviews convert: %w", convErr)
		}
		out = append(out, rv)
	}
	return out, nil
}

// ── Onboarding ──

func (s *Store) CreateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	m, err := toOnboardingModel(ob)
	if err != nil {
		return err
	}
	if _, err := s.db.NewInsert().Model(m).Exec(ctx); err != nil {
		return fmt.Errorf("hrflow/bun: create onboarding: %w", err)
	}
	return nil
}

func (s *Store) GetOnboarding(ctx context.Context, onboardingID id.OnboardingID) (*hr.OnboardingRecord, error) {
	m := new(onboardingModel)
	err := s.db.NewSelect().Model(m).
		Where("id = ?", onboardingID.String()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrOnboardingNotFound
		}
		return nil, fmt.Errorf("hrflow/bun: get onboarding: %w", err)
	}
	return fromOnboardingModel(m)
}

func (s *Store) UpdateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	m, err := toOnboardingModel(ob)
	if err != nil {
		return err
	}
	m.UpdatedAt = time.Now().UTC()
	res, err := s.db.NewUpdate().Model(m).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("hrflow/bun: update onboarding: %w", err)
	}
	rows, _ := res.RowsAffected() //nolint:errcheck // driver always returns nil
	if rows == 0 {
		return hrflow.ErrOnboardingNotFound
	}
	return nil
}

// ── Stats ──

// Stats counts records per kind.
func (s *Store) Stats(ctx context.Context) (hr.Stats, error) {
	var st hr.Stats
	counts := []struct {
		model any
		dest  *int
	}{
		{(*employeeModel)(nil), &st.Employees},
		{(*candidateModel)(nil), &st.Candidates},
		{(*postingModel)(nil), &st.Postings},
		{(*interviewModel)(nil), &st.Interviews},
		{(*reviewModel)(nil), &st.Reviews},
		{(*onboardingModel)(nil), &st.Onboardings},
	}
	for _, c := range counts {
		n, err := s.db.NewSelect().Model(c.model).Count(ctx)
		if err != nil {
			return hr.Stats{}, fmt.Errorf("hrflow/bun: stats: %w", err)
		}
		*c.dest = n
	}
	return st, nil
}
