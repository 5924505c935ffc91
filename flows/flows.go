// Package flows ships the standard HR workflow graphs: candidate
// screening, interview processing, employee onboarding, and performance
// reviews. Each flow is a graph.Graph whose steps read their inputs from
// run state, act on the personnel store, and route on the outcome.
package flows

import (
	"log/slog"

	"github.com/xraph/hrflow/assist"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/notify"
)

// Graph names as registered in the runner's registry.
const (
	CandidateScreening = "candidate_screening"
	InterviewProcess   = "interview_process"
	EmployeeOnboarding = "employee_onboarding"
	PerformanceReview  = "performance_review"
)

// State fields the flows read and write.
const (
	FieldCandidateID    = "candidate_id"
	FieldPostingID      = "posting_id"
	FieldInterviewID    = "interview_id"
	FieldEmployeeID     = "employee_id"
	FieldReviewerID     = "reviewer_id"
	FieldOnboardingID   = "onboarding_id"
	FieldReviewID       = "review_id"
	FieldRecommendation = "recommendation"
	FieldScreeningScore = "screening_score"
	FieldDecision       = "decision"
	FieldPeriod         = "period"
	FieldRecruiterEmail = "recruiter_email"
	FieldCompany        = "company"
)

// Decision values for the interview flow.
const (
	DecisionHire   = "hire"
	DecisionReject = "reject"
)

const (
	defaultCompany        = "the company"
	defaultRecruiterEmail = "recruiting@hrflow.local"
)

// Flows builds the shipped workflow graphs against a personnel store, a
// candidate screener, and a notification sender.
type Flows struct {
	store    hr.Store
	screener assist.Screener
	sender   *notify.Sender
	logger   *slog.Logger
}

// New creates the flow builder. A nil screener defaults to the rule
// engine; a nil logger defaults to slog.Default.
func New(store hr.Store, screener assist.Screener, sender *notify.Sender, logger *slog.Logger) *Flows {
	if screener == nil {
		screener = assist.NewRuleScreener()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Flows{
		store:    store,
		screener: screener,
		sender:   sender,
		logger:   logger,
	}
}

// RegisterAll registers every shipped flow with the registry.
func (f *Flows) RegisterAll(reg *graph.Registry) error {
	for _, g := range []*graph.Graph{
		f.CandidateScreening(),
		f.InterviewProcess(),
		f.EmployeeOnboarding(),
		f.PerformanceReview(),
	} {
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
