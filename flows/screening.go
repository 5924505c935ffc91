package flows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
	"github.com/xraph/hrflow/state"
)

// CandidateScreening builds the screening flow: score the candidate,
// then route to scheduling an interview, sending a rejection, or
// flagging for manual review.
func (f *Flows) CandidateScreening() *graph.Graph {
	g := graph.New(CandidateScreening)
	g.MustRegister("screen", f.screen,
		graph.When("schedule_interview", graph.FieldEquals(FieldRecommendation, "proceed")),
		graph.When("send_rejection", graph.FieldEquals(FieldRecommendation, "reject")),
		graph.When("needs_review", graph.FieldEquals(FieldRecommendation, "needs_review")),
	)
	g.MustRegister("schedule_interview", f.scheduleInterview)
	g.MustRegister("send_rejection", f.sendRejection)
	g.MustRegister("needs_review", f.flagForReview)
	return g
}

func (f *Flows) screen(ctx context.Context, st *state.State) (graph.Hint, error) {
	c, err := f.candidateFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	var posting *hr.JobPosting
	if !c.PostingID.IsNil() {
		posting, err = f.store.GetPosting(ctx, c.PostingID)
		if err != nil && !errors.Is(err, hrflow.ErrPostingNotFound) {
			return graph.Hint{}, fmt.Errorf("load posting %s: %w", c.PostingID, err)
		}
	}

	res, err := f.screener.Screen(ctx, c, posting)
	if err != nil {
		return graph.Hint{}, fmt.Errorf("screen candidate %s: %w", c.ID, err)
	}

	st.Set(FieldScreeningScore, res.Score)
	st.Set(FieldRecommendation, string(res.Recommendation))
	st.Set("screening_reasoning", res.Reasoning)

	c.Status = hr.CandidateScreening
	if err := f.store.UpdateCandidate(ctx, c); err != nil {
		return graph.Hint{}, fmt.Errorf("update candidate %s: %w", c.ID, err)
	}

	f.logger.Info("candidate screened",
		slog.String("candidate_id", c.ID.String()),
		slog.Int("score", res.Score),
		slog.String("recommendation", string(res.Recommendation)),
	)
	return graph.Continue, nil
}

func (f *Flows) scheduleInterview(ctx context.Context, st *state.State) (graph.Hint, error) {
	c, err := f.candidateFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	iv := &hr.Interview{
		Entity:      hrflow.NewEntity(),
		ID:          id.NewInterviewID(),
		CandidateID: c.ID,
		PostingID:   c.PostingID,
		ScheduledAt: time.Now().UTC().Add(72 * time.Hour),
		Status:      hr.InterviewScheduled,
	}
	if err := f.store.CreateInterview(ctx, iv); err != nil {
		return graph.Hint{}, fmt.Errorf("create interview for %s: %w", c.ID, err)
	}
	st.Set(FieldInterviewID, iv.ID.String())

	c.Status = hr.CandidateInterview
	if err := f.store.UpdateCandidate(ctx, c); err != nil {
		return graph.Hint{}, fmt.Errorf("update candidate %s: %w", c.ID, err)
	}

	invite := notify.InterviewInvite(c.Name, c.Email, f.positionOf(ctx, c), iv.ScheduledAt.Format(time.RFC1123))
	if err := f.send(ctx, st, invite); err != nil {
		return graph.Hint{}, err
	}
	return graph.End, nil
}

func (f *Flows) sendRejection(ctx context.Context, st *state.State) (graph.Hint, error) {
	c, err := f.candidateFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	c.Status = hr.CandidateRejected
	if err := f.store.UpdateCandidate(ctx, c); err != nil {
		return graph.Hint{}, fmt.Errorf("update candidate %s: %w", c.ID, err)
	}

	rejection := notify.Rejection(c.Name, c.Email, f.positionOf(ctx, c))
	if err := f.send(ctx, st, rejection); err != nil {
		return graph.Hint{}, err
	}
	return graph.End, nil
}

func (f *Flows) flagForReview(ctx context.Context, st *state.State) (graph.Hint, error) {
	c, err := f.candidateFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	c.Status = hr.CandidateNeedsReview
	if err := f.store.UpdateCandidate(ctx, c); err != nil {
		return graph.Hint{}, fmt.Errorf("update candidate %s: %w", c.ID, err)
	}

	recruiter, _ := st.GetDefault(FieldRecruiterEmail, defaultRecruiterEmail).(string)
	if err := f.send(ctx, st, notify.ManualReview(recruiter, c.Name)); err != nil {
		return graph.Hint{}, err
	}
	return graph.End, nil
}

// candidateFromState loads the candidate named by the run state.
func (f *Flows) candidateFromState(ctx context.Context, st *state.State) (*hr.Candidate, error) {
	raw, err := st.GetString(FieldCandidateID)
	if err != nil {
		return nil, err
	}
	candidateID, err := id.ParseCandidateID(raw)
	if err != nil {
		return nil, fmt.Errorf("parse candidate id %q: %w", raw, err)
	}
	c, err := f.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("load candidate %s: %w", candidateID, err)
	}
	return c, nil
}

// positionOf resolves the posting title for notification copy, falling
// back to a generic label when the candidate has no posting.
func (f *Flows) positionOf(ctx context.Context, c *hr.Candidate) string {
	if c.PostingID.IsNil() {
		return "the open position"
	}
	p, err := f.store.GetPosting(ctx, c.PostingID)
	if err != nil {
		return "the open position"
	}
	return p.Title
}

// send delivers a notification stamped with the current run ID.
func (f *Flows) send(ctx context.Context, st *state.State, n *notify.Notification) error {
	if f.sender == nil {
		return nil
	}
	if runID, err := id.ParseRunID(st.RunID()); err == nil {
		n.RunID = runID
	}
	if err := f.sender.Send(ctx, n); err != nil {
		return fmt.Errorf("notify %s: %w", n.Recipient, err)
	}
	return nil
}
