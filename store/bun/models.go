package bunstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
)

// String slices and the onboarding checklist are stored as JSON blobs so
// the same models work on both SQLite and PostgreSQL.

// ── Run model ─────────────────────────────────────────────────────

type runModel struct {
	bun.BaseModel `bun:"table:hrflow_runs"`

	ID          string     `bun:"id,pk"`
	Graph       string     `bun:"graph,notnull"`
	State       string     `bun:"state,notnull,default:'running'"`
	Frontier    []byte     `bun:"frontier"`
	Seq         int        `bun:"seq,notnull,default:0"`
	Input       []byte     `bun:"input"`
	Output      []byte     `bun:"output"`
	Error       string     `bun:"error"`
	StartedAt   time.Time  `bun:"started_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
}

func toRunModel(r *graph.Run) (*runModel, error) {
	frontier, err := json.Marshal(r.Frontier)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode frontier: %w", err)
	}
	return &runModel{
		ID:          r.ID.String(),
		Graph:       r.Graph,
		State:       string(r.State),
		Frontier:    frontier,
		Seq:         r.Seq,
		Input:       r.Input,
		Output:      r.Output,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func fromRunModel(m *runModel) (*graph.Run, error) {
	parsedID, err := id.ParseRunID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse run id %q: %w", m.ID, err)
	}

	r := &graph.Run{
		Entity:      hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          parsedID,
		Graph:       m.Graph,
		State:       graph.RunState(m.State),
		Seq:         m.Seq,
		Input:       m.Input,
		Output:      m.Output,
		Error:       m.Error,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
	if len(m.Frontier) > 0 {
		if err := json.Unmarshal(m.Frontier, &r.Frontier); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode frontier: %w", err)
		}
	}
	return r, nil
}

// ── Checkpoint model ──────────────────────────────────────────────

type checkpointModel struct {
	bun.BaseModel `bun:"table:hrflow_checkpoints"`

	ID        string    `bun:"id,notnull"`
	RunID     string    `bun:"run_id,pk"`
	Seq       int       `bun:"seq,pk"`
	Steps     []byte    `bun:"steps"`
	Next      []byte    `bun:"next"`
	State     []byte    `bun:"state"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func toCheckpointModel(cp *graph.Checkpoint) (*checkpointModel, error) {
	steps, err := json.Marshal(cp.Steps)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode steps: %w", err)
	}
	next, err := json.Marshal(cp.Next)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode next: %w", err)
	}
	return &checkpointModel{
		ID:        cp.ID.String(),
		RunID:     cp.RunID.String(),
		Seq:       cp.Seq,
		Steps:     steps,
		Next:      next,
		State:     cp.State,
		CreatedAt: cp.CreatedAt,
	}, nil
}

func fromCheckpointModel(m *checkpointModel) (*graph.Checkpoint, error) {
	parsedID, err := id.ParseCheckpointID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse checkpoint id %q: %w", m.ID, err)
	}
	parsedRun, err := id.ParseRunID(m.RunID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse run id %q: %w", m.RunID, err)
	}

	cp := &graph.Checkpoint{
		ID:        parsedID,
		RunID:     parsedRun,
		Seq:       m.Seq,
		State:     m.State,
		CreatedAt: m.CreatedAt,
	}
	if len(m.Steps) > 0 {
		if err := json.Unmarshal(m.Steps, &cp.Steps); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode steps: %w", err)
		}
	}
	if len(m.Next) > 0 {
		if err := json.Unmarshal(m.Next, &cp.Next); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode next: %w", err)
		}
	}
	return cp, nil
}

// ── Candidate model ───────────────────────────────────────────────

type candidateModel struct {
	bun.BaseModel `bun:"table:hrflow_candidates"`

	ID              string    `bun:"id,pk"`
	Name            string    `bun:"name,notnull"`
	Email           string    `bun:"email,notnull"`
	Phone           string    `bun:"phone"`
	PostingID       string    `bun:"posting_id"`
	Resume          string    `bun:"resume"`
	Skills          []byte    `bun:"skills"`
	ExperienceYears int       `bun:"experience_years,notnull,default:0"`
	Status          string    `bun:"status,notnull"`
	CreatedAt       time.Time `bun:"created_at,notnull"`
	UpdatedAt       time.Time `bun:"updated_at,notnull"`
}

func toCandidateModel(c *hr.Candidate) (*candidateModel, error) {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode skills: %w", err)
	}
	return &candidateModel{
		ID:              c.ID.String(),
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		PostingID:       optionalID(c.PostingID),
		Resume:          c.Resume,
		Skills:          skills,
		ExperienceYears: c.ExperienceYears,
		Status:          string(c.Status),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

func fromCandidateModel(m *candidateModel) (*hr.Candidate, error) {
	parsedID, err := id.ParseCandidateID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse candidate id %q: %w", m.ID, err)
	}
	posting, err := parseOptionalID(m.PostingID, id.ParsePostingID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: %w", err)
	}

	c := &hr.Candidate{
		Entity:          hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              parsedID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		PostingID:       posting,
		Resume:          m.Resume,
		ExperienceYears: m.ExperienceYears,
		Status:          hr.CandidateStatus(m.Status),
	}
	if len(m.Skills) > 0 {
		if err := json.Unmarshal(m.Skills, &c.Skills); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode skills: %w", err)
		}
	}
	return c, nil
}

// ── Employee model ────────────────────────────────────────────────

type employeeModel struct {
	bun.BaseModel `bun:"table:hrflow_employees"`

	ID         string    `bun:"id,pk"`
	Name       string    `bun:"name,notnull"`
	Email      string    `bun:"email,notnull"`
	Department string    `bun:"department"`
	Position   string    `bun:"position"`
	ManagerID  string    `bun:"manager_id"`
	StartDate  time.Time `bun:"start_date"`
	Active     bool      `bun:"active,notnull,default:true"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func toEmployeeModel(e *hr.Employee) *employeeModel {
	return &employeeModel{
		ID:         e.ID.String(),
		Name:       e.Name,
		Email:      e.Email,
		Department: e.Department,
		Position:   e.Position,
		ManagerID:  optionalID(e.ManagerID),
		StartDate:  e.StartDate,
		Active:     e.Active,
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func fromEmployeeModel(m *employeeModel) (*hr.Employee, error) {
	parsedID, err := id.ParseEmployeeID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse employee id %q: %w", m.ID, err)
	}
	manager, err := parseOptionalID(m.ManagerID, id.ParseEmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: %w", err)
	}

	return &hr.Employee{
		Entity:     hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         parsedID,
		Name:       m.Name,
		Email:      m.Email,
		Department: m.Department,
		Position:   m.Position,
		ManagerID:  manager,
		StartDate:  m.StartDate,
		Active:     m.Active,
	}, nil
}

// ── Job posting model ─────────────────────────────────────────────

type postingModel struct {
	bun.BaseModel `bun:"table:hrflow_postings"`

	ID           string    `bun:"id,pk"`
	Title        string    `bun:"title,notnull"`
	Department   string    `bun:"department"`
	Description  string    `bun:"description"`
	Requirements []byte    `bun:"requirements"`
	Status       string    `bun:"status,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func toPostingModel(p *hr.JobPosting) (*postingModel, error) {
	requirements, err := json.Marshal(p.Requirements)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode requirements: %w", err)
	}
	return &postingModel{
		ID:           p.ID.String(),
		Title:        p.Title,
		Department:   p.Department,
		Description:  p.Description,
		Requirements: requirements,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}

func fromPostingModel(m *postingModel) (*hr.JobPosting, error) {
	parsedID, err := id.ParsePostingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse posting id %q: %w", m.ID, err)
	}

	p := &hr.JobPosting{
		Entity:      hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          parsedID,
		Title:       m.Title,
		Department:  m.Department,
		Description: m.Description,
		Status:      hr.PostingStatus(m.Status),
	}
	if len(m.Requirements) > 0 {
		if err := json.Unmarshal(m.Requirements, &p.Requirements); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode requirements: %w", err)
		}
	}
	return p, nil
}

// ── Interview model ───────────────────────────────────────────────

type interviewModel struct {
	bun.BaseModel `bun:"table:hrflow_interviews"`

	ID          string    `bun:"id,pk"`
	CandidateID string    `bun:"candidate_id,notnull"`
	PostingID   string    `bun:"posting_id"`
	Interviewer string    `bun:"interviewer"`
	ScheduledAt time.Time `bun:"scheduled_at"`
	Status      string    `bun:"status,notnull"`
	Feedback    string    `bun:"feedback"`
	Score       *float64  `bun:"score"`
	CreatedAt   time.Time `bun:"created_at,notnull"`
	UpdatedAt   time.Time `bun:"updated_at,notnull"`
}

func toInterviewModel(iv *hr.Interview) *interviewModel {
	return &interviewModel{
		ID:          iv.ID.String(),
		CandidateID: iv.CandidateID.String(),
		PostingID:   optionalID(iv.PostingID),
		Interviewer: iv.Interviewer,
		ScheduledAt: iv.ScheduledAt,
		Status:      string(iv.Status),
		Feedback:    iv.Feedback,
		Score:       iv.Score,
		CreatedAt:   iv.CreatedAt,
		UpdatedAt:   iv.UpdatedAt,
	}
}

func fromInterviewModel(m *interviewModel) (*hr.Interview, error) {
	parsedID, err := id.ParseInterviewID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse interview id %q: %w", m.ID, err)
	}
	candidate, err := id.ParseCandidateID(m.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse candidate id %q: %w", m.CandidateID, err)
	}
	posting, err := parseOptionalID(m.PostingID, id.ParsePostingID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: %w", err)
	}

	return &hr.Interview{
		Entity:      hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          parsedID,
		CandidateID: candidate,
		PostingID:   posting,
		Interviewer: m.Interviewer,
		ScheduledAt: m.ScheduledAt,
		Status:      hr.InterviewStatus(m.Status),
		Feedback:    m.Feedback,
		Score:       m.Score,
	}, nil
}

// ── Performance review model ──────────────────────────────────────

type reviewModel struct {
	bun.BaseModel `bun:"table:hrflow_reviews"`

	ID         string    `bun:"id,pk"`
	EmployeeID string    `bun:"employee_id,notnull"`
	ReviewerID string    `bun:"reviewer_id"`
	Period     string    `bun:"period"`
	Status     string    `bun:"status,notnull"`
	Rating     *float64  `bun:"rating"`
	Goals      []byte    `bun:"goals"`
	Feedback   string    `bun:"feedback"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func toReviewModel(rv *hr.PerformanceReview) (*reviewModel, error) {
	goals, err := json.Marshal(rv.Goals)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode goals: %w", err)
	}
	return &reviewModel{
		ID:         rv.ID.String(),
		EmployeeID: rv.EmployeeID.String(),
		ReviewerID: optionalID(rv.ReviewerID),
		Period:     rv.Period,
		Status:     string(rv.Status),
		Rating:     rv.Rating,
		Goals:      goals,
		Feedback:   rv.Feedback,
		CreatedAt:  rv.CreatedAt,
		UpdatedAt:  rv.UpdatedAt,
	}, nil
}

func fromReviewModel(m *reviewModel) (*hr.PerformanceReview, error) {
	parsedID, err := id.ParseReviewID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse review id %q: %w", m.ID, err)
	}
	employee, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse employee id %q: %w", m.EmployeeID, err)
	}
	reviewer, err := parseOptionalID(m.ReviewerID, id.ParseEmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: %w", err)
	}

	rv := &hr.PerformanceReview{
		Entity:     hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         parsedID,
		EmployeeID: employee,
		ReviewerID: reviewer,
		Period:     m.Period,
		Status:     hr.ReviewStatus(m.Status),
		Rating:     m.Rating,
		Feedback:   m.Feedback,
	}
	if len(m.Goals) > 0 {
		if err := json.Unmarshal(m.Goals, &rv.Goals); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode goals: %w", err)
		}
	}
	return rv, nil
}

// ── Onboarding model ──────────────────────────────────────────────

type onboardingModel struct {
	bun.BaseModel `bun:"table:hrflow_onboardings"`

	ID         string    `bun:"id,pk"`
	EmployeeID string    `bun:"employee_id,notnull"`
	Status     string    `bun:"status,notnull"`
	Checklist  []byte    `bun:"checklist"`
	StartDate  time.Time `bun:"start_date"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
	UpdatedAt  time.Time `bun:"updated_at,notnull"`
}

func toOnboardingModel(ob *hr.OnboardingRecord) (*onboardingModel, error) {
	checklist, err := json.Marshal(ob.Checklist)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: encode checklist: %w", err)
	}
	return &onboardingModel{
		ID:         ob.ID.String(),
		EmployeeID: ob.EmployeeID.String(),
		Status:     string(ob.Status),
		Checklist:  checklist,
		StartDate:  ob.StartDate,
		CreatedAt:  ob.CreatedAt,
		UpdatedAt:  ob.UpdatedAt,
	}, nil
}

func fromOnboardingModel(m *onboardingModel) (*hr.OnboardingRecord, error) {
	parsedID, err := id.ParseOnboardingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse onboarding id %q: %w", m.ID, err)
	}
	employee, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse employee id %q: %w", m.EmployeeID, err)
	}

	ob := &hr.OnboardingRecord{
		Entity:     hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         parsedID,
		EmployeeID: employee,
		Status:     hr.OnboardingStatus(m.Status),
		StartDate:  m.StartDate,
	}
	if len(m.Checklist) > 0 {
		if err := json.Unmarshal(m.Checklist, &ob.Checklist); err != nil {
			return nil, fmt.Errorf("hrflow/bun: decode checklist: %w", err)
		}
	}
	return ob, nil
}

// ── Notification model ────────────────────────────────────────────

type notificationModel struct {
	bun.BaseModel `bun:"table:hrflow_notifications"`

	ID        string    `bun:"id,pk"`
	RunID     string    `bun:"run_id"`
	Kind      string    `bun:"kind,notnull"`
	Recipient string    `bun:"recipient,notnull"`
	Subject   string    `bun:"subject"`
	Body      string    `bun:"body"`
	SentAt    time.Time `bun:"sent_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func toNotificationModel(n *notify.Notification) *notificationModel {
	return &notificationModel{
		ID:        n.ID.String(),
		RunID:     optionalID(n.RunID),
		Kind:      string(n.Kind),
		Recipient: n.Recipient,
		Subject:   n.Subject,
		Body:      n.Body,
		SentAt:    n.SentAt,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

func fromNotificationModel(m *notificationModel) (*notify.Notification, error) {
	parsedID, err := id.ParseNotificationID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: parse notification id %q: %w", m.ID, err)
	}
	run, err := parseOptionalID(m.RunID, id.ParseRunID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/bun: %w", err)
	}

	return &notify.Notification{
		Entity:    hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:        parsedID,
		RunID:     run,
		Kind:      notify.Kind(m.Kind),
		Recipient: m.Recipient,
		Subject:   m.Subject,
		Body:      m.Body,
		SentAt:    m.SentAt,
	}, nil
}
