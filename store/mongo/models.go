package mongo

import (
	"fmt"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
)

// ── Run model ─────────────────────────────────────────────────────

type runModel struct {
	ID          string     `bson:"_id"`
	Graph       string     `bson:"graph"`
	State       string     `bson:"state"`
	Frontier    []string   `bson:"frontier,omitempty"`
	Seq         int        `bson:"seq"`
	Input       []byte     `bson:"input,omitempty"`
	Output      []byte     `bson:"output,omitempty"`
	Error       string     `bson:"error,omitempty"`
	StartedAt   time.Time  `bson:"started_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func toRunModel(r *graph.Run) *runModel {
	return &runModel{
		ID:          r.ID.String(),
		Graph:       r.Graph,
		State:       string(r.State),
		Frontier:    r.Frontier,
		Seq:         r.Seq,
		Input:       r.Input,
		Output:      r.Output,
		Error:       r.Error,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRunModel(m *runModel) (*graph.Run, error) {
	parsedID, err := id.ParseRunID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse run id %q: %w", m.ID, err)
	}

	return &graph.Run{
		Entity:      hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          parsedID,
		Graph:       m.Graph,
		State:       graph.RunState(m.State),
		Frontier:    m.Frontier,
		Seq:         m.Seq,
		Input:       m.Input,
		Output:      m.Output,
		Error:       m.Error,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}, nil
}

// ── Checkpoint model ──────────────────────────────────────────────

type checkpointModel struct {
	ID        string    `bson:"_id"`
	RunID     string    `bson:"run_id"`
	Seq       int       `bson:"seq"`
	Steps     []string  `bson:"steps,omitempty"`
	Next      []string  `bson:"next,omitempty"`
	State     []byte    `bson:"state,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func toCheckpointModel(cp *graph.Checkpoint) *checkpointModel {
	return &checkpointModel{
		ID:        cp.ID.String(),
		RunID:     cp.RunID.String(),
		Seq:       cp.Seq,
		Steps:     cp.Steps,
		Next:      cp.Next,
		State:     cp.State,
		CreatedAt: cp.CreatedAt,
	}
}

func fromCheckpointModel(m *checkpointModel) (*graph.Checkpoint, error) {
	parsedID, err := id.ParseCheckpointID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse checkpoint id %q: %w", m.ID, err)
	}
	parsedRun, err := id.ParseRunID(m.RunID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse run id %q: %w", m.RunID, err)
	}

	return &graph.Checkpoint{
		ID:        parsedID,
		RunID:     parsedRun,
		Seq:       m.Seq,
		Steps:     m.Steps,
		Next:      m.Next,
		State:     m.State,
		CreatedAt: m.CreatedAt,
	}, nil
}

// ── Candidate model ───────────────────────────────────────────────

type candidateModel struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	Email           string    `bson:"email"`
	Phone           string    `bson:"phone,omitempty"`
	PostingID       string    `bson:"posting_id,omitempty"`
	Resume          string    `bson:"resume,omitempty"`
	Skills          []string  `bson:"skills,omitempty"`
	ExperienceYears int       `bson:"experience_years"`
	Status          string    `bson:"status"`
	CreatedAt       time.Time `bson:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

func toCandidateModel(c *hr.Candidate) *candidateModel {
	return &candidateModel{
		ID:              c.ID.String(),
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
		PostingID:       optionalID(c.PostingID),
		Resume:          c.Resume,
		Skills:          c.Skills,
		ExperienceYears: c.ExperienceYears,
		Status:          string(c.Status),
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func fromCandidateModel(m *candidateModel) (*hr.Candidate, error) {
	parsedID, err := id.ParseCandidateID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse candidate id %q: %w", m.ID, err)
	}
	posting, err := parseOptionalID(m.PostingID, id.ParsePostingID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: %w", err)
	}

	return &hr.Candidate{
		Entity:          hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              parsedID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		PostingID:       posting,
		Resume:          m.Resume,
		Skills:          m.Skills,
		ExperienceYears: m.ExperienceYears,
		Status:          hr.CandidateStatus(m.Status),
	}, nil
}

// ── Employee model ────────────────────────────────────────────────

type employeeModel struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Email      string    `bson:"email"`
	Department string    `bson:"department,omitempty"`
	Position   string    `bson:"position,omitempty"`
	ManagerID  string    `bson:"manager_id,omitempty"`
	StartDate  time.Time `bson:"start_date"`
	Active     bool      `bson:"active"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
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
		return nil, fmt.Errorf("hrflow/mongo: parse employee id %q: %w", m.ID, err)
	}
	manager, err := parseOptionalID(m.ManagerID, id.ParseEmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: %w", err)
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
	ID           string    `bson:"_id"`
	Title        string    `bson:"title"`
	Department   string    `bson:"department,omitempty"`
	Description  string    `bson:"description,omitempty"`
	Requirements []string  `bson:"requirements,omitempty"`
	Status       string    `bson:"status"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toPostingModel(p *hr.JobPosting) *postingModel {
	return &postingModel{
		ID:           p.ID.String(),
		Title:        p.Title,
		Department:   p.Department,
		Description:  p.Description,
		Requirements: p.Requirements,
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPostingModel(m *postingModel) (*hr.JobPosting, error) {
	parsedID, err := id.ParsePostingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse posting id %q: %w", m.ID, err)
	}

	return &hr.JobPosting{
		Entity:       hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           parsedID,
		Title:        m.Title,
		Department:   m.Department,
		Description:  m.Description,
		Requirements: m.Requirements,
		Status:       hr.PostingStatus(m.Status),
	}, nil
}

// ── Interview model ───────────────────────────────────────────────

type interviewModel struct {
	ID          string    `bson:"_id"`
	CandidateID string    `bson:"candidate_id"`
	PostingID   string    `bson:"posting_id,omitempty"`
	Interviewer string    `bson:"interviewer,omitempty"`
	ScheduledAt time.Time `bson:"scheduled_at"`
	Status      string    `bson:"status"`
	Feedback    string    `bson:"feedback,omitempty"`
	Score       *float64  `bson:"score,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
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
		return nil, fmt.Errorf("hrflow/mongo: parse interview id %q: %w", m.ID, err)
	}
	candidate, err := id.ParseCandidateID(m.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse candidate id %q: %w", m.CandidateID, err)
	}
	posting, err := parseOptionalID(m.PostingID, id.ParsePostingID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: %w", err)
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
	ID         string    `bson:"_id"`
	EmployeeID string    `bson:"employee_id"`
	ReviewerID string    `bson:"reviewer_id,omitempty"`
	Period     string    `bson:"period,omitempty"`
	Status     string    `bson:"status"`
	Rating     *float64  `bson:"rating,omitempty"`
	Goals      []string  `bson:"goals,omitempty"`
	Feedback   string    `bson:"feedback,omitempty"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toReviewModel(rv *hr.PerformanceReview) *reviewModel {
	return &reviewModel{
		ID:         rv.ID.String(),
		EmployeeID: rv.EmployeeID.String(),
		ReviewerID: optionalID(rv.ReviewerID),
		Period:     rv.Period,
		Status:     string(rv.Status),
		Rating:     rv.Rating,
		Goals:      rv.Goals,
		Feedback:   rv.Feedback,
		CreatedAt:  rv.CreatedAt,
		UpdatedAt:  rv.UpdatedAt,
	}
}

func fromReviewModel(m *reviewModel) (*hr.PerformanceReview, error) {
	parsedID, err := id.ParseReviewID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse review id %q: %w", m.ID, err)
	}
	employee, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse employee id %q: %w", m.EmployeeID, err)
	}
	reviewer, err := parseOptionalID(m.ReviewerID, id.ParseEmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: %w", err)
	}

	return &hr.PerformanceReview{
		Entity:     hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         parsedID,
		EmployeeID: employee,
		ReviewerID: reviewer,
		Period:     m.Period,
		Status:     hr.ReviewStatus(m.Status),
		Rating:     m.Rating,
		Goals:      m.Goals,
		Feedback:   m.Feedback,
	}, nil
}

// ── Onboarding model ──────────────────────────────────────────────

type checklistTaskModel struct {
	Task    string     `bson:"task"`
	Status  string     `bson:"status"`
	DueDate *time.Time `bson:"due_date,omitempty"`
}

type onboardingModel struct {
	ID         string               `bson:"_id"`
	EmployeeID string               `bson:"employee_id"`
	Status     string               `bson:"status"`
	Checklist  []checklistTaskModel `bson:"checklist,omitempty"`
	StartDate  time.Time            `bson:"start_date"`
	CreatedAt  time.Time            `bson:"created_at"`
	UpdatedAt  time.Time            `bson:"updated_at"`
}

func toOnboardingModel(ob *hr.OnboardingRecord) *onboardingModel {
	checklist := make([]checklistTaskModel, len(ob.Checklist))
	for i, t := range ob.Checklist {
		checklist[i] = checklistTaskModel{Task: t.Task, Status: string(t.Status), DueDate: t.DueDate}
	}
	return &onboardingModel{
		ID:         ob.ID.String(),
		EmployeeID: ob.EmployeeID.String(),
		Status:     string(ob.Status),
		Checklist:  checklist,
		StartDate:  ob.StartDate,
		CreatedAt:  ob.CreatedAt,
		UpdatedAt:  ob.UpdatedAt,
	}
}

func fromOnboardingModel(m *onboardingModel) (*hr.OnboardingRecord, error) {
	parsedID, err := id.ParseOnboardingID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse onboarding id %q: %w", m.ID, err)
	}
	employee, err := id.ParseEmployeeID(m.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: parse employee id %q: %w", m.EmployeeID, err)
	}

	checklist := make([]hr.ChecklistTask, len(m.Checklist))
	for i, t := range m.Checklist {
		checklist[i] = hr.ChecklistTask{Task: t.Task, Status: hr.TaskStatus(t.Status), DueDate: t.DueDate}
	}
	return &hr.OnboardingRecord{
		Entity:     hrflow.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         parsedID,
		EmployeeID: employee,
		Status:     hr.OnboardingStatus(m.Status),
		Checklist:  checklist,
		StartDate:  m.StartDate,
	}, nil
}

// ── Notification model ────────────────────────────────────────────

type notificationModel struct {
	ID        string    `bson:"_id"`
	RunID     string    `bson:"run_id,omitempty"`
	Kind      string    `bson:"kind"`
	Recipient string    `bson:"recipient"`
	Subject   string    `bson:"subject,omitempty"`
	Body      string    `bson:"body,omitempty"`
	SentAt    time.Time `bson:"sent_at"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
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
		return nil, fmt.Errorf("hrflow/mongo: parse notification id %q: %w", m.ID, err)
	}
	run, err := parseOptionalID(m.RunID, id.ParseRunID)
	if err != nil {
		return nil, fmt.Errorf("hrflow/mongo: %w", err)
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

// ── shared id helpers ─────────────────────────────────────────────

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
