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
	"github.com/xraph/hrflow/notify"
	"github.com/xraph/hrflow/state"
)

// EmployeeOnboarding builds the onboarding flow: open a checklist for
// the new hire, then send the welcome message.
func (f *Flows) EmployeeOnboarding() *graph.Graph {
	g := graph.New(EmployeeOnboarding)
	g.MustRegister("initiate", f.initiateOnboarding, graph.To("send_welcome"))
	g.MustRegister("send_welcome", f.sendWelcome)
	return g
}

func (f *Flows) initiateOnboarding(ctx context.Context, st *state.State) (graph.Hint, error) {
	emp, err := f.employeeFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	ob := &hr.OnboardingRecord{
		Entity:     hrflow.NewEntity(),
		ID:         id.NewOnboardingID(),
		EmployeeID: emp.ID,
		Status:     hr.OnboardingInProgress,
		Checklist:  hr.DefaultChecklist(),
		StartDate:  time.Now().UTC(),
	}
	if err := f.store.CreateOnboarding(ctx, ob); err != nil {
		return graph.Hint{}, fmt.Errorf("create onboarding for %s: %w", emp.ID, err)
	}
	st.Set(FieldOnboardingID, ob.ID.String())

	f.logger.Info("onboarding initiated",
		slog.String("employee_id", emp.ID.String()),
		slog.String("onboarding_id", ob.ID.String()),
		slog.Int("checklist_tasks", len(ob.Checklist)),
	)
	return graph.Continue, nil
}

func (f *Flows) sendWelcome(ctx context.Context, st *state.State) (graph.Hint, error) {
	emp, err := f.employeeFromState(ctx, st)
	if err != nil {
		return graph.Hint{}, err
	}

	company, _ := st.GetDefault(FieldCompany, defaultCompany).(string)
	if err := f.send(ctx, st, notify.Welcome(emp.Name, emp.Email, company)); err != nil {
		return graph.Hint{}, err
	}
	return graph.End, nil
}

// employeeFromState loads the employee named by the run state.
func (f *Flows) employeeFromState(ctx context.Context, st *state.State) (*hr.Employee, error) {
	raw, err := st.GetString(FieldEmployeeID)
	if err != nil {
		return nil, err
	}
	employeeID, err := id.ParseEmployeeID(raw)
	if err != nil {
		return nil, fmt.Errorf("parse employee id %q: %w", raw, err)
	}
	emp, err := f.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("load employee %s: %w", employeeID, err)
	}
	return emp, nil
}
