package flows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/state"
)

// hireThreshold is the minimum interview score that recommends a hire
// when the state carries no explicit decision.
const hireThreshold = 3.5

// InterviewProcess builds the interview flow: record the interview
// outcome, then either convert the candidate to an employee or send a
// rejection.
func (f *Flows) InterviewProcess() *graph.Graph {
	g := graph.New(InterviewProcess)
	g.MustRegister("conduct", f.conductInterview,
		graph.When("start_onboarding", graph.FieldEquals(FieldDecision, DecisionHire)),
		graph.To("send_rejection"),
	)
	g.MustRegister("start_onboarding", f.startOnboarding)
	g.MustRegister("send_rejection", f.sendRejection)
	return g
}

func (f *Flows) conductInterview(ctx context.Context, st *state.State) (graph.Hint, error) {
	raw, err := st.GetString(FieldInterviewID)
	if err != nil {
		return graph.Hint{}, err
	}
	interviewID, err := id.ParseInterviewID(raw)
	if err != nil {
		return graph.Hint{}, fmt.Errorf("parse interview id %q: %w", raw, err)
	}
	iv, err := f.store.GetInterview(ctx, interviewID)
	if err != nil {
		return graph.Hint{}, fmt.Errorf("load interview %s: %w", interviewID, err)
	}

	if feedback, fbErr := st.GetString("interview_feedback"); fbErr == nil {
		iv.Feedback = feedback
	}
	if score, ok := st.GetDefault("interview_score", nil).(float64); ok {
		iv.Score = &score
	}
	iv.Status = hr.InterviewCompleted
	if err := f.store.UpdateInterview(ctx, iv); err != nil {
		return graph.Hint{}, fmt.Errorf("update interview %s: %w", interviewID, err)
	}

	// An explicit decision in state wins; otherwise derive it from the
	// interview score.
	decision, _ := st.GetDefault(FieldDecision, "").(string)
	if decision == "" {
		decision = DecisionReject
		if iv.Score != nil && *iv.Score >= hireThreshold {
			decision = DecisionHire
		}
		st.Set(FieldDecision, decision)
	}

	st.Set(FieldCandidateID, iv.CandidateID.String())
	f.logger.Info("interview concluded",
		slog.String("interview_id", interviewID.String()),
		slog.String("decision", decision),
	)
	return graph.Continue, nil
}

func (f *Flows) startOnboarding(ctx context.Context, st *state.State) (graph.Hint, error) {
	c, err := f.candidateFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	emp := &hr.Employee{
		Entity:    hrflow.NewEntity(),
		ID:        id.NewEmployeeID(),
		Name:      c.Name,
		Email:     c.Email,
		Position:  f.positionOf(ctx, c),
		StartDate: time.Now().UTC().AddDate(0, 0, 14),
		Active:    true,
	}
	if !c.PostingID.IsNil() {
		if p, pErr := f.store.GetPosting(ctx, c.PostingID); pErr == nil {
			emp.Department = p.Department
		}
	}
	if err := f.store.CreateEmployee(ctx, emp); err != nil {
		return graph.Hint{}, fmt.Errorf("create employee for %s: %w", c.ID, err)
	}
	st.Set(FieldEmployeeID, emp.ID.String())

	c.Status = hr.CandidateHired
	if err := f.store.UpdateCandidate(ctx, c); err != nil {
		return graph.Hint{}, fmt.Errorf("update candidate %s: %w", c.ID, err)
	}

	f.logger.Info("candidate hired",
		slog.String("candidate_id", c.ID.String()),
		slog.String("employee_id", emp.ID.String()),
	)
	return graph.End, nil
}
