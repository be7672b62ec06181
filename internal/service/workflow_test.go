package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/tracker"
)

type fakeTracker struct {
	status        string
	statusErr     error
	fields        tracker.Fields
	fieldsErr     error
	transitionErr error
	transitions   []int
}

func (f *fakeTracker) GetStatus(context.Context, string) (string, error) {
	return f.status, f.statusErr
}

func (f *fakeTracker) GetFields(context.Context, string) (tracker.Fields, error) {
	return f.fields, f.fieldsErr
}

func (f *fakeTracker) ExecuteTransition(_ context.Context, _ string, transitionID int) error {
	if f.transitionErr != nil {
		return f.transitionErr
	}
	f.transitions = append(f.transitions, transitionID)
	return nil
}

type fakeSnapshotStore struct {
	byKey map[string]model.NegotiationSnapshot
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{byKey: make(map[string]model.NegotiationSnapshot)}
}

func (s *fakeSnapshotStore) Upsert(_ context.Context, snapshot model.NegotiationSnapshot) (*model.NegotiationSnapshot, error) {
	s.byKey[snapshot.RequestKey] = snapshot
	saved := snapshot
	return &saved, nil
}

func (s *fakeSnapshotStore) GetByRequestKey(_ context.Context, requestKey string) (*model.NegotiationSnapshot, error) {
	snapshot, ok := s.byKey[requestKey]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &snapshot, nil
}

type fakeRequestStatusStore struct {
	statuses map[string]string
}

func (s *fakeRequestStatusStore) UpdateStatus(_ context.Context, requestKey, status string) error {
	if s.statuses == nil {
		s.statuses = make(map[string]string)
	}
	s.statuses[requestKey] = status
	return nil
}

type fakeUserFinder struct {
	byEmail map[string]model.User
}

func (f *fakeUserFinder) FindByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

type fakeStatusNotifier struct {
	events []StatusChangedEvent
}

func (f *fakeStatusNotifier) OnStatusChanged(_ context.Context, ev StatusChangedEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type workflowEnv struct {
	Workflow  *Workflow
	Ledger    *Ledger
	Tracker   *fakeTracker
	Snapshots *fakeSnapshotStore
	Users     *fakeUserFinder
	Notifier  *fakeStatusNotifier
	Ctx       context.Context
}

func newWorkflowEnv(t *testing.T) workflowEnv {
	t.Helper()
	trackerClient := &fakeTracker{status: "Open"}
	snapshots := newFakeSnapshotStore()
	users := &fakeUserFinder{byEmail: make(map[string]model.User)}
	notifier := &fakeStatusNotifier{}
	ledger, _ := newTestLedger()

	wf := NewWorkflow(
		trackerClient,
		snapshots,
		&fakeRequestStatusStore{},
		ledger,
		users,
		notifier,
		"Completed",
		zerolog.Nop(),
	)
	wf.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	return workflowEnv{
		Workflow:  wf,
		Ledger:    ledger,
		Tracker:   trackerClient,
		Snapshots: snapshots,
		Users:     users,
		Notifier:  notifier,
		Ctx:       context.Background(),
	}
}

func (env workflowEnv) seedLedger(t *testing.T, requestKey string, totals []string, finals []bool) {
	t.Helper()
	for i := range totals {
		total := dec(totals[i])
		if _, err := env.Ledger.Append(env.Ctx, AppendProposalInput{
			RequestKey: requestKey,
			UnitPrice:  total,
			Quantity:   1,
			Total:      &total,
			IsFinal:    finals[i],
		}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestMarkCompletedEndToEnd(t *testing.T) {
	env := newWorkflowEnv(t)
	env.seedLedger(t, "REQ-1", []string{"100", "80"}, []bool{false, true})

	updated := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	months := 12
	env.Tracker.fields = tracker.Fields{
		Vendor:         "Initech",
		Product:        "TPS Suite",
		RequesterName:  "Jane Doe",
		RequesterEmail: "jane@example.com",
		CurrentCount:   50,
		NewCount:       80,
		Unit:           "seats",
		DurationMonths: &months,
		Updated:        &updated,
	}
	org, dept := int64(5), int64(3)
	env.Users.byEmail["jane@example.com"] = model.User{
		ID:             "u-42",
		Email:          "jane@example.com",
		Role:           model.RoleEmployee,
		OrganizationID: &org,
		DepartmentID:   &dept,
	}

	snapshot, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
		RequestKey:    "REQ-1",
		TransitionKey: "approve-negotiation-stage",
		Actor:         model.Principal{UserID: "admin-1", FullName: "Admin"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(env.Tracker.transitions) != 1 || env.Tracker.transitions[0] != 5 {
		t.Fatalf("transitions = %v, want [5]", env.Tracker.transitions)
	}
	if !snapshot.Profit.Equal(dec("20")) {
		t.Fatalf("profit = %s, want 20", snapshot.Profit)
	}
	if snapshot.Status != model.SnapshotStatusCompleted {
		t.Fatalf("status = %q", snapshot.Status)
	}
	wantRenewal := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if snapshot.RenewalDate == nil || !snapshot.RenewalDate.Equal(wantRenewal) {
		t.Fatalf("renewal = %v, want %s", snapshot.RenewalDate, wantRenewal)
	}

	if len(env.Notifier.events) != 1 {
		t.Fatalf("events = %d, want 1", len(env.Notifier.events))
	}
	ev := env.Notifier.events[0]
	if ev.RequesterID != "u-42" || ev.FromStatus != "Open" || ev.ToStatus != "Completed" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.OrganizationID == nil || *ev.OrganizationID != 5 || ev.DepartmentID == nil || *ev.DepartmentID != 3 {
		t.Fatalf("event scoping = %+v", ev)
	}
}

func TestMarkCompletedIdempotent(t *testing.T) {
	env := newWorkflowEnv(t)
	env.seedLedger(t, "REQ-1", []string{"100", "80"}, []bool{false, true})

	first, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
		RequestKey:    "REQ-1",
		TransitionKey: "approve-negotiation-stage",
	})
	if err != nil {
		t.Fatal(err)
	}

	// remote status caught up; retry must not touch the external store again
	env.Tracker.status = "Completed"
	second, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
		RequestKey:    "REQ-1",
		TransitionKey: "approve-negotiation-stage",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(env.Tracker.transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(env.Tracker.transitions))
	}
	if !first.Profit.Equal(second.Profit) || first.RequestKey != second.RequestKey {
		t.Fatalf("snapshots differ: %+v vs %+v", first, second)
	}
	if len(env.Notifier.events) != 1 {
		t.Fatalf("events = %d, want 1 (no event on short-circuit)", len(env.Notifier.events))
	}
}

func TestMarkCompletedCaseInsensitiveGuard(t *testing.T) {
	env := newWorkflowEnv(t)
	env.Tracker.status = "COMPLETED"
	env.Snapshots.byKey["REQ-1"] = model.NegotiationSnapshot{RequestKey: "REQ-1", Profit: dec("7")}

	snapshot, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
		RequestKey:    "REQ-1",
		TransitionKey: "approve-post-approval",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(env.Tracker.transitions) != 0 {
		t.Fatalf("transitions = %v, want none", env.Tracker.transitions)
	}
	if !snapshot.Profit.Equal(dec("7")) {
		t.Fatalf("profit = %s, want stored 7", snapshot.Profit)
	}
}

func TestMarkCompletedRawNumericTransition(t *testing.T) {
	env := newWorkflowEnv(t)

	if _, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
		RequestKey:    "REQ-1",
		TransitionKey: "31",
	}); err != nil {
		t.Fatal(err)
	}
	if len(env.Tracker.transitions) != 1 || env.Tracker.transitions[0] != 31 {
		t.Fatalf("transitions = %v, want [31]", env.Tracker.transitions)
	}
}

func TestMarkCompletedErrors(t *testing.T) {
	t.Run("missing request key", func(t *testing.T) {
		env := newWorkflowEnv(t)
		_, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{TransitionKey: "approve-pre-approval"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("missing transition key", func(t *testing.T) {
		env := newWorkflowEnv(t)
		_, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{RequestKey: "REQ-1"})
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("err = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("unknown transition key", func(t *testing.T) {
		env := newWorkflowEnv(t)
		_, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-something-else",
		})
		if !errors.Is(err, ErrInvalidTransitionKey) {
			t.Fatalf("err = %v, want ErrInvalidTransitionKey", err)
		}
		if len(env.Tracker.transitions) != 0 {
			t.Fatalf("no transition should run, got %v", env.Tracker.transitions)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		env := newWorkflowEnv(t)
		env.Tracker.transitionErr = &tracker.RejectedError{StatusCode: 409, Body: "not allowed"}
		_, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-request-review",
		})
		if !errors.Is(err, ErrTransitionRejected) {
			t.Fatalf("err = %v, want ErrTransitionRejected", err)
		}
		if len(env.Snapshots.byKey) != 0 {
			t.Fatal("no snapshot should be persisted on rejection")
		}
	})

	t.Run("timeout", func(t *testing.T) {
		env := newWorkflowEnv(t)
		env.Tracker.transitionErr = fmt.Errorf("%w: dial tcp", tracker.ErrTimeout)
		_, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-request-review",
		})
		if !errors.Is(err, ErrExternalTimeout) {
			t.Fatalf("err = %v, want ErrExternalTimeout", err)
		}
	})

	t.Run("unavailable on status read", func(t *testing.T) {
		env := newWorkflowEnv(t)
		env.Tracker.statusErr = fmt.Errorf("%w: 503", tracker.ErrUnavailable)
		_, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-request-review",
		})
		if !errors.Is(err, ErrExternalUnavailable) {
			t.Fatalf("err = %v, want ErrExternalUnavailable", err)
		}
	})
}

func TestMarkCompletedRenewalFallbacks(t *testing.T) {
	t.Run("explicit renewal when no duration", func(t *testing.T) {
		env := newWorkflowEnv(t)
		explicit := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		snapshot, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-post-approval",
			RenewalDate:   &explicit,
		})
		if err != nil {
			t.Fatal(err)
		}
		if snapshot.RenewalDate == nil || !snapshot.RenewalDate.Equal(explicit) {
			t.Fatalf("renewal = %v, want %s", snapshot.RenewalDate, explicit)
		}
	})

	t.Run("nil when nothing supplied", func(t *testing.T) {
		env := newWorkflowEnv(t)
		snapshot, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-post-approval",
		})
		if err != nil {
			t.Fatal(err)
		}
		if snapshot.RenewalDate != nil {
			t.Fatalf("renewal = %v, want nil", snapshot.RenewalDate)
		}
	})

	t.Run("duration beats explicit renewal", func(t *testing.T) {
		env := newWorkflowEnv(t)
		months := 6
		updated := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
		env.Tracker.fields = tracker.Fields{DurationMonths: &months, Updated: &updated}
		explicit := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

		snapshot, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
			RequestKey:    "REQ-1",
			TransitionKey: "approve-post-approval",
			RenewalDate:   &explicit,
		})
		if err != nil {
			t.Fatal(err)
		}
		want := time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)
		if snapshot.RenewalDate == nil || !snapshot.RenewalDate.Equal(want) {
			t.Fatalf("renewal = %v, want %s", snapshot.RenewalDate, want)
		}
	})
}

func TestMarkCompletedExplicitProfit(t *testing.T) {
	env := newWorkflowEnv(t)
	env.seedLedger(t, "REQ-1", []string{"100", "80"}, []bool{false, true})

	explicit := decimal.NewFromInt(999)
	snapshot, err := env.Workflow.MarkCompleted(env.Ctx, MarkCompletedInput{
		RequestKey:    "REQ-1",
		TransitionKey: "approve-negotiation-stage",
		Profit:        &explicit,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !snapshot.Profit.Equal(explicit) {
		t.Fatalf("profit = %s, want 999", snapshot.Profit)
	}
}
