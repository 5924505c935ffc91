// Package hr defines the personnel domain records that workflows operate
// on, and the store contract for persisting them.
package hr

import (
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/id"
)

// CandidateStatus tracks where a candidate sits in the hiring pipeline.
type CandidateStatus string

const (
	CandidateApplied     CandidateStatus = "applied"
	CandidateScreening   CandidateStatus = "screening"
	CandidateInterview   CandidateStatus = "interview_scheduled"
	CandidateNeedsReview CandidateStatus = "needs_review"
	CandidateRejected    CandidateStatus = "rejected"
	CandidateHired       CandidateStatus = "hired"
)

// Candidate is an applicant for a job posting.
type Candidate struct {
	hrflow.Entity

	ID              id.CandidateID  `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone,omitempty"`
	PostingID       id.PostingID    `json:"posting_id,omitempty"`
	Resume          string          `json:"resume,omitempty"`
	Skills          []string        `json:"skills,omitempty"`
	ExperienceYears int             `json:"experience_years"`
	Status          CandidateStatus `json:"status"`
}

// Employee is a member of staff.
type Employee struct {
	hrflow.Entity

	ID         id.EmployeeID `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Department string        `json:"department"`
	Position   string        `json:"position"`
	ManagerID  id.EmployeeID `json:"manager_id,omitempty"`
	StartDate  time.Time     `json:"start_date"`
	Active     bool          `json:"active"`
}

// PostingStatus tracks whether a job posting accepts applications.
type PostingStatus string

const (
	PostingActive PostingStatus = "active"
	PostingClosed PostingStatus = "closed"
)

// JobPosting is an open position candidates apply to.
type JobPosting struct {
	hrflow.Entity

	ID           id.PostingID  `json:"id"`
	Title        string        `json:"title"`
	Department   string        `json:"department"`
	Description  string        `json:"description,omitempty"`
	Requirements []string      `json:"requirements,omitempty"`
	Status       PostingStatus `json:"status"`
}

// InterviewStatus tracks an interview's lifecycle.
type InterviewStatus string

const (
	InterviewScheduled InterviewStatus = "scheduled"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

// Interview links a candidate to an interviewer at a scheduled time.
type Interview struct {
	hrflow.Entity

	ID          id.InterviewID  `json:"id"`
	CandidateID id.CandidateID  `json:"candidate_id"`
	PostingID   id.PostingID    `json:"posting_id,omitempty"`
	Interviewer string          `json:"interviewer,omitempty"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	Status      InterviewStatus `json:"status"`
	Feedback    string          `json:"feedback,omitempty"`
	Score       *float64        `json:"score,omitempty"`
}

// ReviewStatus tracks a performance review's lifecycle.
type ReviewStatus string

const (
	ReviewScheduled ReviewStatus = "scheduled"
	ReviewCompleted ReviewStatus = "completed"
)

// PerformanceReview is a periodic evaluation of an employee.
type PerformanceReview struct {
	hrflow.Entity

	ID         id.ReviewID   `json:"id"`
	EmployeeID id.EmployeeID `json:"employee_id"`
	ReviewerID id.EmployeeID `json:"reviewer_id"`
	Period     string        `json:"period,omitempty"`
	Status     ReviewStatus  `json:"status"`
	Rating     *float64      `json:"rating,omitempty"`
	Goals      []string      `json:"goals,omitempty"`
	Feedback   string        `json:"feedback,omitempty"`
}

// TaskStatus tracks one onboarding checklist item.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
)

// ChecklistTask is a single onboarding to-do.
type ChecklistTask struct {
	Task    string     `json:"task"`
	Status  TaskStatus `json:"status"`
	DueDate *time.Time `json:"due_date,omitempty"`
}

// OnboardingStatus tracks an onboarding record's lifecycle.
type OnboardingStatus string

const (
	OnboardingInProgress OnboardingStatus = "in_progress"
	OnboardingCompleted  OnboardingStatus = "completed"
)

// OnboardingRecord tracks a new hire's onboarding checklist.
type OnboardingRecord struct {
	hrflow.Entity

	ID         id.OnboardingID  `json:"id"`
	EmployeeID id.EmployeeID    `json:"employee_id"`
	Status     OnboardingStatus `json:"status"`
	Checklist  []ChecklistTask  `json:"checklist"`
	StartDate  time.Time        `json:"start_date"`
}

// DefaultChecklist returns the standard new-hire checklist.
func DefaultChecklist() []ChecklistTask {
	tasks := []string{
		"Complete I-9 form",
		"Submit tax documents",
		"Review employee handbook",
		"Set up workspace",
		"IT equipment assignment",
		"Benefits enrollment",
		"Department introduction",
	}
	out := make([]ChecklistTask, len(tasks))
	for i, task := range tasks {
		out[i] = ChecklistTask{Task: task, Status: TaskPending}
	}
	return out
}

// Complete marks the named checklist task completed. It reports whether
// the task was found.
func (r *OnboardingRecord) Complete(task string) bool {
	for i := range r.Checklist {
		if r.Checklist[i].Task == task {
			r.Checklist[i].Status = TaskCompleted
			return true
		}
	}
	return false
}

// Done reports whether every checklist task is completed.
func (r *OnboardingRecord) Done() bool {
	for _, t := range r.Checklist {
		if t.Status != TaskCompleted {
			return false
		}
	}
	return len(r.Checklist) > 0
}

// Stats summarizes the store contents.
type Stats struct {
	Employees   int `json:"employees"`
	Candidates  int `json:"candidates"`
	Postings    int `json:"postings"`
	Interviews  int `json:"interviews"`
	Reviews     int `json:"reviews"`
	Onboardings int `json:"onboardings"`
}
