package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
)

// ──────────────────────────────────────────────────
// Candidates
// ──────────────────────────────────────────────────

const candidateColumns = `
	id, name, email, phone, posting_id, resume, skills,
	experience_years, status, created_at, updated_at`

func (s *Store) CreateCandidate(ctx context.Context, c *hr.Candidate) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_candidates (
			id, name, email, phone, posting_id, resume, skills,
			experience_years, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID.String(), c.Name, c.Email, c.Phone, optionalID(c.PostingID),
		c.Resume, c.Skills, c.ExperienceYears, string(c.Status),
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: create candidate: %w", err)
	}
	return nil
}

func (s *Store) GetCandidate(ctx context.Context, candidateID id.CandidateID) (*hr.Candidate, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+candidateColumns+` FROM hrflow_candidates WHERE id = $1`,
		candidateID.String(),
	)
	c, err := scanCandidate(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get candidate: %w", err)
	}
	return c, nil
}

func (s *Store) UpdateCandidate(ctx context.Context, c *hr.Candidate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE hrflow_candidates SET
			name = $2, email = $3, phone = $4, posting_id = $5, resume = $6,
			skills = $7, experience_years = $8, status = $9, updated_at = NOW()
		WHERE id = $1`,
		c.ID.String(), c.Name, c.Email, c.Phone, optionalID(c.PostingID),
		c.Resume, c.Skills, c.ExperienceYears, string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrCandidateNotFound
	}
	return nil
}

func (s *Store) ListCandidates(ctx context.Context, status hr.CandidateStatus) ([]*hr.Candidate, error) {
	query := `SELECT` + candidateColumns + ` FROM hrflow_candidates`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: list candidates: %w", err)
	}
	defer rows.Close()

	var out []*hr.Candidate
	for rows.Next() {
		c, scanErr := scanCandidate(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: list candidates: %w", scanErr)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCandidate(row pgx.Row) (*hr.Candidate, error) {
	var (
		c          hr.Candidate
		rawID      string
		rawPosting string
		status     string
	)
	err := row.Scan(
		&rawID, &c.Name, &c.Email, &c.Phone, &rawPosting, &c.Resume,
		&c.Skills, &c.ExperienceYears, &status, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if c.ID, err = id.ParseCandidateID(rawID); err != nil {
		return nil, fmt.Errorf("parse candidate id %q: %w", rawID, err)
	}
	if c.PostingID, err = parseOptionalID(rawPosting, id.ParsePostingID); err != nil {
		return nil, err
	}
	c.Status = hr.CandidateStatus(status)
	return &c, nil
}

// ──────────────────────────────────────────────────
// Employees
// ──────────────────────────────────────────────────

const employeeColumns = `
	id, name, email, department, position, manager_id, start_date,
	active, created_at, updated_at`

func (s *Store) CreateEmployee(ctx context.Context, e *hr.Employee) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_employees (
			id, name, email, department, position, manager_id, start_date,
			active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID.String(), e.Name, e.Email, e.Department, e.Position,
		optionalID(e.ManagerID), e.StartDate, e.Active, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: create employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*hr.Employee, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+employeeColumns+` FROM hrflow_employees WHERE id = $1`,
		employeeID.String(),
	)
	e, err := scanEmployee(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get employee: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, e *hr.Employee) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE hrflow_employees SET
			name = $2, email = $3, department = $4, position = $5,
			manager_id = $6, start_date = $7, active = $8, updated_at = NOW()
		WHERE id = $1`,
		e.ID.String(), e.Name, e.Email, e.Department, e.Position,
		optionalID(e.ManagerID), e.StartDate, e.Active,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: update employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrEmployeeNotFound
	}
	return nil
}

// SearchEmployees matches the term case-insensitively against name,
// email and department. An empty term returns all employees.
func (s *Store) SearchEmployees(ctx context.Context, term string) ([]*hr.Employee, error) {
	query := `SELECT` + employeeColumns + ` FROM hrflow_employees`
	args := []any{}
	if term != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1 OR department ILIKE $1`
		args = append(args, "%"+term+"%")
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: search employees: %w", err)
	}
	defer rows.Close()

	var out []*hr.Employee
	for rows.Next() {
		e, scanErr := scanEmployee(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: search employees: %w", scanErr)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (*hr.Employee, error) {
	var (
		e          hr.Employee
		rawID      string
		rawManager string
		startDate  *time.Time
	)
	err := row.Scan(
		&rawID, &e.Name, &e.Email, &e.Department, &e.Position,
		&rawManager, &startDate, &e.Active, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if e.ID, err = id.ParseEmployeeID(rawID); err != nil {
		return nil, fmt.Errorf("parse employee id %q: %w", rawID, err)
	}
	if e.ManagerID, err = parseOptionalID(rawManager, id.ParseEmployeeID); err != nil {
		return nil, err
	}
	if startDate != nil {
		e.StartDate = *startDate
	}
	return &e, nil
}

// ──────────────────────────────────────────────────
// Job postings
// ──────────────────────────────────────────────────

const postingColumns = `
	id, title, department, description, requirements, status,
	created_at, updated_at`

func (s *Store) CreatePosting(ctx context.Context, p *hr.JobPosting) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_postings (
			id, title, department, description, requirements, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID.String(), p.Title, p.Department, p.Description,
		p.Requirements, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: create posting: %w", err)
	}
	return nil
}

func (s *Store) GetPosting(ctx context.Context, postingID id.PostingID) (*hr.JobPosting, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+postingColumns+` FROM hrflow_postings WHERE id = $1`,
		postingID.String(),
	)
	p, err := scanPosting(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrPostingNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get posting: %w", err)
	}
	return p, nil
}

func (s *Store) ListActivePostings(ctx context.Context) ([]*hr.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+postingColumns+` FROM hrflow_postings WHERE status = $1 ORDER BY created_at ASC`,
		string(hr.PostingActive),
	)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: list postings: %w", err)
	}
	defer rows.Close()

	var out []*hr.JobPosting
	for rows.Next() {
		p, scanErr := scanPosting(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: list postings: %w", scanErr)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPosting(row pgx.Row) (*hr.JobPosting, error) {
	var (
		p      hr.JobPosting
		rawID  string
		status string
	)
	err := row.Scan(
		&rawID, &p.Title, &p.Department, &p.Description,
		&p.Requirements, &status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.ID, err = id.ParsePostingID(rawID); err != nil {
		return nil, fmt.Errorf("parse posting id %q: %w", rawID, err)
	}
	p.Status = hr.PostingStatus(status)
	return &p, nil
}

// ──────────────────────────────────────────────────
// Interviews
// ──────────────────────────────────────────────────

const interviewColumns = `
	id, candidate_id, posting_id, interviewer, scheduled_at, status,
	feedback, score, created_at, updated_at`

func (s *Store) CreateInterview(ctx context.Context, iv *hr.Interview) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_interviews (
			id, candidate_id, posting_id, interviewer, scheduled_at, status,
			feedback, score, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		iv.ID.String(), iv.CandidateID.String(), optionalID(iv.PostingID),
		iv.Interviewer, iv.ScheduledAt, string(iv.Status),
		iv.Feedback, iv.Score, iv.CreatedAt, iv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: create interview: %w", err)
	}
	return nil
}

func (s *Store) GetInterview(ctx context.Context, interviewID id.InterviewID) (*hr.Interview, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+interviewColumns+` FROM hrflow_interviews WHERE id = $1`,
		interviewID.String(),
	)
	iv, err := scanInterview(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrInterviewNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get interview: %w", err)
	}
	return iv, nil
}

func (s *Store) UpdateInterview(ctx context.Context, iv *hr.Interview) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE hrflow_interviews SET
			candidate_id = $2, posting_id = $3, interviewer = $4,
			scheduled_at = $5, status = $6, feedback = $7, score = $8,
			updated_at = NOW()
		WHERE id = $1`,
		iv.ID.String(), iv.CandidateID.String(), optionalID(iv.PostingID),
		iv.Interviewer, iv.ScheduledAt, string(iv.Status), iv.Feedback, iv.Score,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: update interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrInterviewNotFound
	}
	return nil
}

func scanInterview(row pgx.Row) (*hr.Interview, error) {
	var (
		iv           hr.Interview
		rawID        string
		rawCandidate string
		rawPosting   string
		scheduledAt  *time.Time
		status       string
	)
	err := row.Scan(
		&rawID, &rawCandidate, &rawPosting, &iv.Interviewer, &scheduledAt,
		&status, &iv.Feedback, &iv.Score, &iv.CreatedAt, &iv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if iv.ID, err = id.ParseInterviewID(rawID); err != nil {
		return nil, fmt.Errorf("parse interview id %q: %w", rawID, err)
	}
	if iv.CandidateID, err = id.ParseCandidateID(rawCandidate); err != nil {
		return nil, fmt.Errorf("parse candidate id %q: %w", rawCandidate, err)
	}
	if iv.PostingID, err = parseOptionalID(rawPosting, id.ParsePostingID); err != nil {
		return nil, err
	}
	if scheduledAt != nil {
		iv.ScheduledAt = *scheduledAt
	}
	iv.Status = hr.InterviewStatus(status)
	return &iv, nil
}

// ──────────────────────────────────────────────────
// Performance reviews
// ──────────────────────────────────────────────────

const reviewColumns = `
	id, employee_id, reviewer_id, period, status, rating, goals,
	feedback, created_at, updated_at`

func (s *Store) CreateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO hrflow_reviews (
			id, employee_id, reviewer_id, period, status, rating, goals,
			feedback, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rv.ID.String(), rv.EmployeeID.String(), optionalID(rv.ReviewerID),
		rv.Period, string(rv.Status), rv.Rating, rv.Goals,
		rv.Feedback, rv.CreatedAt, rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: create review: %w", err)
	}
	return nil
}

func (s *Store) GetReview(ctx context.Context, reviewID id.ReviewID) (*hr.PerformanceReview, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+reviewColumns+` FROM hrflow_reviews WHERE id = $1`,
		reviewID.String(),
	)
	rv, err := scanReview(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrReviewNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get review: %w", err)
	}
	return rv, nil
}

func (s *Store) UpdateReview(ctx context.Context, rv *hr.PerformanceReview) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE hrflow_reviews SET
			employee_id = $2, reviewer_id = $3, period = $4, status = $5,
			rating = $6, goals = $7, feedback = $8, updated_at = NOW()
		WHERE id = $1`,
		rv.ID.String(), rv.EmployeeID.String(), optionalID(rv.ReviewerID),
		rv.Period, string(rv.Status), rv.Rating, rv.Goals, rv.Feedback,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrReviewNotFound
	}
	return nil
}

func (s *Store) ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*hr.PerformanceReview, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT`+reviewColumns+` FROM hrflow_reviews WHERE employee_id = $1 ORDER BY created_at ASC`,
		employeeID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("hrflow/postgres: list reviews: %w", err)
	}
	defer rows.Close()

	var out []*hr.PerformanceReview
	for rows.Next() {
		rv, scanErr := scanReview(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("hrflow/postgres: list reviews: %w", scanErr)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func scanReview(row pgx.Row) (*hr.PerformanceReview, error) {
	var (
		rv          hr.PerformanceReview
		rawID       string
		rawEmployee string
		rawReviewer string
		status      string
	)
	err := row.Scan(
		&rawID, &rawEmployee, &rawReviewer, &rv.Period, &status,
		&rv.Rating, &rv.Goals, &rv.Feedback, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rv.ID, err = id.ParseReviewID(rawID); err != nil {
		return nil, fmt.Errorf("parse review id %q: %w", rawID, err)
	}
	if rv.EmployeeID, err = id.ParseEmployeeID(rawEmployee); err != nil {
		return nil, fmt.Errorf("parse employee id %q: %w", rawEmployee, err)
	}
	if rv.ReviewerID, err = parseOptionalID(rawReviewer, id.ParseEmployeeID); err != nil {
		return nil, err
	}
	rv.Status = hr.ReviewStatus(status)
	return &rv, nil
}

// ──────────────────────────────────────────────────
// Onboarding
// ──────────────────────────────────────────────────

const onboardingColumns = `
	id, employee_id, status, checklist, start_date, created_at, updated_at`

func (s *Store) CreateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	checklist, err := json.Marshal(ob.Checklist)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: encode checklist: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO hrflow_onboardings (
			id, employee_id, status, checklist, start_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ob.ID.String(), ob.EmployeeID.String(), string(ob.Status),
		checklist, ob.StartDate, ob.CreatedAt, ob.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: create onboarding: %w", err)
	}
	return nil
}

func (s *Store) GetOnboarding(ctx context.Context, onboardingID id.OnboardingID) (*hr.OnboardingRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT`+onboardingColumns+` FROM hrflow_onboardings WHERE id = $1`,
		onboardingID.String(),
	)
	ob, err := scanOnboarding(row)
	if err != nil {
		if isNoRows(err) {
			return nil, hrflow.ErrOnboardingNotFound
		}
		return nil, fmt.Errorf("hrflow/postgres: get onboarding: %w", err)
	}
	return ob, nil
}

func (s *Store) UpdateOnboarding(ctx context.Context, ob *hr.OnboardingRecord) error {
	checklist, err := json.Marshal(ob.Checklist)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: encode checklist: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE hrflow_onboardings SET
			employee_id = $2, status = $3, checklist = $4, start_date = $5,
			updated_at = NOW()
		WHERE id = $1`,
		ob.ID.String(), ob.EmployeeID.String(), string(ob.Status),
		checklist, ob.StartDate,
	)
	if err != nil {
		return fmt.Errorf("hrflow/postgres: update onboarding: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return hrflow.ErrOnboardingNotFound
	}
	return nil
}

func scanOnboarding(row pgx.Row) (*hr.OnboardingRecord, error) {
	var (
		ob          hr.OnboardingRecord
		rawID       string
		rawEmployee string
		status      string
		checklist   []byte
		startDate   *time.Time
	)
	err := row.Scan(
		&rawID, &rawEmployee, &status, &checklist, &startDate,
		&ob.CreatedAt, &ob.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ob.ID, err = id.ParseOnboardingID(rawID); err != nil {
		return nil, fmt.Errorf("parse onboarding id %q: %w", rawID, err)
	}
	if ob.EmployeeID, err = id.ParseEmployeeID(rawEmployee); err != nil {
		return nil, fmt.Errorf("parse employee id %q: %w", rawEmployee, err)
	}
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &ob.Checklist); err != nil {
			return nil, fmt.Errorf("decode checklist: %w", err)
		}
	}
	if startDate != nil {
		ob.StartDate = *startDate
	}
	ob.Status = hr.OnboardingStatus(status)
	return &ob, nil
}

// ──────────────────────────────────────────────────
// Stats
// ──────────────────────────────────────────────────

// Stats counts records per kind with a single round trip.
func (s *Store) Stats(ctx context.Context) (hr.Stats, error) {
	var st hr.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM hrflow_employees),
			(SELECT COUNT(*) FROM hrflow_candidates),
			(SELECT COUNT(*) FROM hrflow_postings),
			(SELECT COUNT(*) FROM hrflow_interviews),
			(SELECT COUNT(*) FROM hrflow_reviews),
			(SELECT COUNT(*) FROM hrflow_onboardings)`,
	).Scan(&st.Employees, &st.Candidates, &st.Postings, &st.Interviews, &st.Reviews, &st.Onboardings)
	if err != nil {
		return hr.Stats{}, fmt.Errorf("hrflow/postgres: stats: %w", err)
	}
	return st, nil
}

func optionalID(v id.ID) string {
	if v.IsNil() {
		return ""
	}
	return v.String()
}

func parseOptionalID(raw string, parse func(string) (id.ID, error)) (id.ID, error) {
	if raw == "" {
		return id.Nil, nil
	}
	parsed, err := parse(raw)
	if err != nil {
		return id.Nil, fmt.Errorf("parse id %q: %w", raw, err)
	}
	return parsed, nil
}
