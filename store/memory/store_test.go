package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/hrflow"
	"github.com/xraph/hrflow/graph"
	"github.com/xraph/hrflow/hr"
	"github.com/xraph/hrflow/id"
	"github.com/xraph/hrflow/notify"
	"github.com/xraph/hrflow/store/memory"
)

func newRun() *graph.Run {
	return &graph.Run{
		Entity:    hrflow.NewEntity(),
		ID:        id.NewRunID(),
		Graph:     "candidate_screening",
		State:     graph.RunStatePending,
		Frontier:  []string{"screen_resume"},
		StartedAt: time.Now().UTC(),
	}
}

func TestRunCRUD(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	run := newRun()

	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := s.CreateRun(ctx, run); !errors.Is(err, hrflow.ErrRunAlreadyExists) {
		t.Errorf("duplicate CreateRun = %v, want ErrRunAlreadyExists", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Graph != "candidate_screening" {
		t.Errorf("Graph = %q", got.Graph)
	}

	got.State = graph.RunStateRunning
	if err := s.UpdateRun(ctx, got); err != nil {
		t.Fatalf("UpdateRun: %v", err)
	}
	again, _ := s.GetRun(ctx, run.ID)
	if again.State != graph.RunStateRunning {
		t.Errorf("State = %q, want running", again.State)
	}

	if err := s.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.GetRun(ctx, run.ID); !errors.Is(err, hrflow.ErrRunNotFound) {
		t.Errorf("GetRun after delete = %v, want ErrRunNotFound", err)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := memory.New()
	if _, err := s.GetRun(context.Background(), id.NewRunID()); !errors.Is(err, hrflow.ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}

func TestListRuns_FilterByState(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	r1 := newRun()
	r2 := newRun()
	r2.State = graph.RunStateCompleted
	for _, r := range []*graph.Run{r1, r2} {
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
	}

	pending, err := s.ListRuns(ctx, graph.ListOpts{State: graph.RunStatePending})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != r1.ID {
		t.Errorf("expected only the pending run, got %d runs", len(pending))
	}

	all, err := s.ListRuns(ctx, graph.ListOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 runs, got %d", len(all))
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	var ids []id.RunID
	for i := 0; i < 3; i++ {
		r := newRun()
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := s.CreateRun(ctx, r); err != nil {
			t.Fatalf("CreateRun: %v", err)
		}
		ids = append(ids, r.ID)
	}

	runs, err := s.ListRuns(ctx, graph.ListOpts{})
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	for i, r := range runs {
		if want := ids[len(ids)-1-i]; r.ID != want {
			t.Errorf("runs[%d].ID = %s, want %s (newest first)", i, r.ID, want)
		}
	}
}

func TestCheckpoint_FirstWriteWins(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	runID := id.NewRunID()

	cp1 := &graph.Checkpoint{
		ID:    id.NewCheckpointID(),
		RunID: runID,
		Seq:   1,
		State: []byte(`{"stage":"start"}`),
	}
	if err := s.SaveCheckpoint(ctx, cp1); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	// Re-saving the same (run, seq) must not replace the original.
	cp1b := &graph.Checkpoint{
		ID:    id.NewCheckpointID(),
		RunID: runID,
		Seq:   1,
		State: []byte(`{"stage":"overwritten"}`),
	}
	if err := s.SaveCheckpoint(ctx, cp1b); err != nil {
		t.Fatalf("SaveCheckpoint (replay): %v", err)
	}

	got, err := s.LoadLatestCheckpoint(ctx, runID)
	if err != nil {
		t.Fatalf("LoadLatestCheckpoint: %v", err)
	}
	if string(got.State) != `{"stage":"start"}` {
		t.Errorf("replayed save must be a no-op, got state %s", got.State)
	}
}

func TestLoadLatestCheckpoint_HighestSeq(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	runID := id.NewRunID()

	for seq := 1; seq <= 3; seq++ {
		cp := &graph.Checkpoint{
			ID:    id.NewCheckpointID(),
			RunID: runID,
			Seq:   seq,
			State: []byte{byte('0' + seq)},
		}
		if err := s.SaveCheckpoint(ctx, cp); err != nil {
			t.Fatalf("SaveCheckpoint seq %d: %v", seq, err)
		}
	}

	got, err := s.LoadLatestCheckpoint(ctx, runID)
	if err != nil {
		t.Fatalf("LoadLatestCheckpoint: %v", err)
	}
	if got.Seq != 3 {
		t.Errorf("Seq = %d, want 3", got.Seq)
	}

	cps, err := s.ListCheckpoints(ctx, runID)
	if err != nil {
		t.Fatalf("ListCheckpoints: %v", err)
	}
	if len(cps) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(cps))
	}
	for i, cp := range cps {
		if cp.Seq != i+1 {
			t.Errorf("checkpoint %d has Seq %d, want %d", i, cp.Seq, i+1)
		}
	}
}

func TestLoadLatestCheckpoint_None(t *testing.T) {
	s := memory.New()
	_, err := s.LoadLatestCheckpoint(context.Background(), id.NewRunID())
	if !errors.Is(err, hrflow.ErrNoCheckpoint) {
		t.Errorf("err = %v, want ErrNoCheckpoint", err)
	}
}

func TestDeleteRun_RemovesCheckpoints(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	run := newRun()
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	cp := &graph.Checkpoint{ID: id.NewCheckpointID(), RunID: run.ID, Seq: 1}
	if err := s.SaveCheckpoint(ctx, cp); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}

	if err := s.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if _, err := s.LoadLatestCheckpoint(ctx, run.ID); !errors.Is(err, hrflow.ErrNoCheckpoint) {
		t.Errorf("expected checkpoints gone, got %v", err)
	}
}

func TestCandidateCRUD(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	c := &hr.Candidate{
		Entity: hrflow.NewEntity(),
		ID:     id.NewCandidateID(),
		Name:   "Ada Lovelace",
		Email:  "ada@example.com",
		Status: hr.CandidateApplied,
	}
	if err := s.CreateCandidate(ctx, c); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}

	got, err := s.GetCandidate(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCandidate: %v", err)
	}
	if got.Name != "Ada Lovelace" {
		t.Errorf("Name = %q", got.Name)
	}

	got.Status = hr.CandidateInterview
	if err := s.UpdateCandidate(ctx, got); err != nil {
		t.Fatalf("UpdateCandidate: %v", err)
	}

	interviewing, err := s.ListCandidates(ctx, hr.CandidateInterview)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	if len(interviewing) != 1 {
		t.Errorf("expected 1 candidate, got %d", len(interviewing))
	}

	if _, err := s.GetCandidate(ctx, id.NewCandidateID()); !errors.Is(err, hrflow.ErrCandidateNotFound) {
		t.Errorf("err = %v, want ErrCandidateNotFound", err)
	}
}

func TestSearchEmployees(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for _, e := range []*hr.Employee{
		{Entity: hrflow.NewEntity(), ID: id.NewEmployeeID(), Name: "Grace Hopper", Email: "grace@example.com", Department: "Engineering"},
		{Entity: hrflow.NewEntity(), ID: id.NewEmployeeID(), Name: "Jean Bartik", Email: "jean@example.com", Department: "Research"},
	} {
		if err := s.CreateEmployee(ctx, e); err != nil {
			t.Fatalf("CreateEmployee: %v", err)
		}
	}

	byDept, err := s.SearchEmployees(ctx, "engineering")
	if err != nil {
		t.Fatalf("SearchEmployees: %v", err)
	}
	if len(byDept) != 1 || byDept[0].Name != "Grace Hopper" {
		t.Errorf("expected Grace Hopper, got %v", byDept)
	}

	byName, err := s.SearchEmployees(ctx, "bartik")
	if err != nil {
		t.Fatalf("SearchEmployees: %v", err)
	}
	if len(byName) != 1 {
		t.Errorf("expected 1 match, got %d", len(byName))
	}
}

func TestOnboardingChecklistIsolation(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	ob := &hr.OnboardingRecord{
		Entity:     hrflow.NewEntity(),
		ID:         id.NewOnboardingID(),
		EmployeeID: id.NewEmployeeID(),
		Status:     hr.OnboardingInProgress,
		Checklist:  hr.DefaultChecklist(),
	}
	if err := s.CreateOnboarding(ctx, ob); err != nil {
		t.Fatalf("CreateOnboarding: %v", err)
	}

	// Mutating the caller's checklist must not affect the stored copy.
	ob.Checklist[0].Status = hr.TaskCompleted

	got, err := s.GetOnboarding(ctx, ob.ID)
	if err != nil {
		t.Fatalf("GetOnboarding: %v", err)
	}
	if got.Checklist[0].Status != hr.TaskPending {
		t.Error("stored checklist shares memory with caller's slice")
	}
}

func TestEmployeeReviews(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	empID := id.NewEmployeeID()

	for i := 0; i < 2; i++ {
		rv := &hr.PerformanceReview{
			Entity:     hrflow.NewEntity(),
			ID:         id.NewReviewID(),
			EmployeeID: empID,
			ReviewerID: id.NewEmployeeID(),
			Status:     hr.ReviewScheduled,
		}
		if err := s.CreateReview(ctx, rv); err != nil {
			t.Fatalf("CreateReview: %v", err)
		}
	}

	reviews, err := s.ListEmployeeReviews(ctx, empID)
	if err != nil {
		t.Fatalf("ListEmployeeReviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Errorf("expected 2 reviews, got %d", len(reviews))
	}
}

func TestNotifications(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	n := &notify.Notification{
		Entity:    hrflow.NewEntity(),
		ID:        id.NewNotificationID(),
		Kind:      notify.KindWelcome,
		Recipient: "new-hire@example.com",
		Subject:   "Welcome!",
		SentAt:    time.Now().UTC(),
	}
	if err := s.RecordNotification(ctx, n); err != nil {
		t.Fatalf("RecordNotification: %v", err)
	}

	got, err := s.ListNotifications(ctx, "new-hire@example.com")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(got) != 1 || got[0].Kind != notify.KindWelcome {
		t.Errorf("unexpected notifications: %v", got)
	}

	none, err := s.ListNotifications(ctx, "other@example.com")
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no notifications, got %d", len(none))
	}
}

func TestStats(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.CreateEmployee(ctx, &hr.Employee{Entity: hrflow.NewEntity(), ID: id.NewEmployeeID(), Name: "A"}); err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	if err := s.CreateCandidate(ctx, &hr.Candidate{Entity: hrflow.NewEntity(), ID: id.NewCandidateID(), Name: "B"}); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Employees != 1 || stats.Candidates != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
