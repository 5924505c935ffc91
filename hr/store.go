package hr

import (
	"context"

	"github.com/xraph/hrflow/id"
)

// Store defines the persistence contract for personnel records.
// Absent records fail with the matching not-found sentinel from the
// root package.
type Store interface {
	CreateCandidate(ctx context.Context, c *Candidate) error
	GetCandidate(ctx context.Context, candidateID id.CandidateID) (*Candidate, error)
	UpdateCandidate(ctx context.Context, c *Candidate) error
	ListCandidates(ctx context.Context, status CandidateStatus) ([]*Candidate, error)

	CreateEmployee(ctx context.Context, e *Employee) error
	GetEmployee(ctx context.Context, employeeID id.EmployeeID) (*Employee, error)
	UpdateEmployee(ctx context.Context, e *Employee) error
	SearchEmployees(ctx context.Context, term string) ([]*Employee, error)

	CreatePosting(ctx context.Context, p *JobPosting) error
	GetPosting(ctx context.Context, postingID id.PostingID) (*JobPosting, error)
	ListActivePostings(ctx context.Context) ([]*JobPosting, error)

	CreateInterview(ctx context.Context, iv *Interview) error
	GetInterview(ctx context.Context, interviewID id.InterviewID) (*Interview, error)
	UpdateInterview(ctx context.Context, iv *Interview) error

	CreateReview(ctx context.Context, rv *PerformanceReview) error
	GetReview(ctx context.Context, reviewID id.ReviewID) (*PerformanceReview, error)
	UpdateReview(ctx context.Context, rv *PerformanceReview) error
	ListEmployeeReviews(ctx context.Context, employeeID id.EmployeeID) ([]*PerformanceReview, error)

	CreateOnboarding(ctx context.Context, ob *OnboardingRecord) error
	GetOnboarding(ctx context.Context, onboardingID id.OnboardingID) (*OnboardingRecord, error)
	UpdateOnboarding(ctx context.Context, ob *OnboardingRecord) error

	// Stats counts records per kind.
	Stats(ctx context.Context) (Stats, error)
}
