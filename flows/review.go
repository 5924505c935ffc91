package flows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
	"github.com/xraph/hrflow/state"
)

// PerformanceReview builds the review flow: open a review record for
// the employee, then notify them it has been scheduled.
func (f *Flows) PerformanceReview() *graph.Graph {
	g := graph.New(PerformanceReview)
	g.MustRegister("create_review", f.createReview, graph.To("notify_completion"))
	g.MustRegister("notify_completion", f.notifyReviewScheduled)
	return g
}

func (f *Flows) createReview(ctx context.Context, st *state.State) (graph.Hint, error) {
	emp, err := f.employeeFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	rv := &hr.PerformanceReview{
		Entity:     hrflow.NewEntity(),
		ID:         id.NewReviewID(),
		EmployeeID: emp.ID,
		Status:     hr.ReviewScheduled,
	}
	if period, pErr := st.GetString(FieldPeriod); pErr == nil {
		rv.Period = period
	}
	if raw, rErr := st.GetString(FieldReviewerID); rErr == nil {
		reviewerID, parseErr := id.ParseEmployeeID(raw)
		if parseErr != nil {
			return graph.Hint{}, fmt.Errorf("parse reviewer id %q: %w", raw, parseErr)
		}
		rv.ReviewerID = reviewerID
	}

	if err := f.store.CreateReview(ctx, rv); err != nil {
		return graph.Hint{}, fmt.Errorf("create review for %s: %w", emp.ID, err)
	}
	st.Set(FieldReviewID, rv.ID.String())

	f.logger.Info("performance review created",
		slog.String("employee_id", emp.ID.String()),
		slog.String("review_id", rv.ID.String()),
		slog.String("period", rv.Period),
	)
	return graph.Continue, nil
}

func (f *Flows) notifyReviewScheduled(ctx context.Context, st *state.State) (graph.Hint, error) {
	emp, err := f.employeeFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	period, _ := st.GetDefault(FieldPeriod, "upcoming").(string)
	if err := f.send(ctx, st, notify.ReviewNotice(emp.Name, emp.Email, period)); err != nil {
		return graph.Hint{}, err
	}
	return graph.End, nil
}
