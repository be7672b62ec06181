package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/tracker"
)

// TrackerClient is the narrow interface onto the external ticket store.
type TrackerClient interface {
	GetStatus(ctx context.Context, requestKey string) (string, error)
	GetFields(ctx context.Context, requestKey string) (tracker.Fields, error)
	ExecuteTransition(ctx context.Context, requestKey string, transitionID int) error
}

// SnapshotStore persists completed-contract snapshots, one per request key.
type SnapshotStore interface {
	Upsert(ctx context.Context, snapshot model.NegotiationSnapshot) (*model.NegotiationSnapshot, error)
	GetByRequestKey(ctx context.Context, requestKey string) (*model.NegotiationSnapshot, error)
}

// RequestStatusStore mirrors the tracker status locally for searching.
type RequestStatusStore interface {
	UpdateStatus(ctx context.Context, requestKey, status string) error
}

// UserFinder resolves identity-provider users mirrored in local storage.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// StatusNotifier receives the status-changed event after a real transition.
type StatusNotifier interface {
	OnStatusChanged(ctx context.Context, ev StatusChangedEvent) error
}

// Workflow drives the guarded completion of a request: it checks the current
// external status, fires the mapped transition, and persists the computed
// completed-contract snapshot exactly once.
type Workflow struct {
	tracker        TrackerClient
	snapshots      SnapshotStore
	requests       RequestStatusStore
	ledger         *Ledger
	users          UserFinder
	notifier       StatusNotifier
	completedLabel string
	locks          *keyLock
	now            func() time.Time
	log            zerolog.Logger
}

func NewWorkflow(
	trackerClient TrackerClient,
	snapshots SnapshotStore,
	requests RequestStatusStore,
	ledger *Ledger,
	users UserFinder,
	notifier StatusNotifier,
	completedLabel string,
	log zerolog.Logger,
) *Workflow {
	return &Workflow{
		tracker:        trackerClient,
		snapshots:      snapshots,
		requests:       requests,
		ledger:         ledger,
		users:          users,
		notifier:       notifier,
		completedLabel: completedLabel,
		locks:          newKeyLock(),
		now:            time.Now,
		log:            log,
	}
}

type MarkCompletedInput struct {
	RequestKey    string
	TransitionKey string
	// Profit overrides the ledger computation when set.
	Profit *decimal.Decimal
	// RenewalDate is the fallback when the tracker carries no duration.
	RenewalDate *time.Time
	Comment     string
	Actor       model.Principal
}

// MarkCompleted converts the external ticket status into a durable snapshot.
// Calling it again once the status already reads completed is a no-op that
// returns the stored snapshot without touching the external store, which
// makes a blind retry after a timeout safe.
func (w *Workflow) MarkCompleted(ctx context.Context, input MarkCompletedInput) (*model.NegotiationSnapshot, error) {
	requestKey := strings.TrimSpace(input.RequestKey)
	if requestKey == "" {
		return nil, fmt.Errorf("%w: request key is required", ErrInvalidInput)
	}
	transitionKey := strings.TrimSpace(input.TransitionKey)
	if transitionKey == "" {
		return nil, fmt.Errorf("%w: transition key is required", ErrInvalidInput)
	}

	unlock := w.locks.Lock(requestKey)
	defer unlock()

	status, err := w.tracker.GetStatus(ctx, requestKey)
	if err != nil {
		return nil, mapTrackerErr(err)
	}

	transitioned := false
	if !strings.EqualFold(status, w.completedLabel) {
		transitionID, ok := tracker.ResolveTransition(transitionKey)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTransitionKey, transitionKey)
		}
		if err := w.tracker.ExecuteTransition(ctx, requestKey, transitionID); err != nil {
			return nil, mapTrackerErr(err)
		}
		transitioned = true
		w.log.Info().
			Str("request_key", requestKey).
			Int("transition_id", transitionID).
			Str("from_status", status).
			Msg("transition executed")
	} else if snapshot, err := w.snapshots.GetByRequestKey(ctx, requestKey); err == nil {
		// already completed and booked: idempotent short-circuit
		return snapshot, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: load snapshot: %v", ErrPersistence, err)
	}

	fields, err := w.tracker.GetFields(ctx, requestKey)
	if err != nil {
		return nil, mapTrackerErr(err)
	}

	profit := decimal.Zero
	if input.Profit != nil {
		profit = *input.Profit
	} else {
		profit, err = w.ledger.NegotiatedProfit(ctx, requestKey)
		if err != nil {
			return nil, err
		}
	}

	completedAt := w.now()
	if fields.Updated != nil {
		completedAt = *fields.Updated
	}
	completionDate := dateOnly(completedAt)

	var renewal *time.Time
	switch {
	case fields.DurationMonths != nil:
		date := completionDate.AddDate(0, *fields.DurationMonths, 0)
		renewal = &date
	case input.RenewalDate != nil:
		renewal = input.RenewalDate
	}

	comment := input.Comment
	if comment == "" {
		comment = fields.Comment
	}

	var requesterID string
	var orgID, deptID *int64
	if requester := w.lookupRequester(ctx, fields.RequesterEmail); requester != nil {
		requesterID = requester.ID
		orgID = requester.OrganizationID
		deptID = requester.DepartmentID
	}

	snapshot := model.NegotiationSnapshot{
		RequestKey:     requestKey,
		Vendor:         fields.Vendor,
		Product:        fields.Product,
		RequesterName:  fields.RequesterName,
		RequesterEmail: fields.RequesterEmail,
		OrganizationID: orgID,
		DepartmentID:   deptID,
		CurrentCount:   fields.CurrentCount,
		NewCount:       fields.NewCount,
		Unit:           fields.Unit,
		Profit:         profit,
		DueDate:        fields.DueDate,
		RenewalDate:    renewal,
		DurationMonths: fields.DurationMonths,
		Comment:        comment,
		Status:         model.SnapshotStatusCompleted,
		CompletedAt:    completedAt,
	}

	saved, err := w.snapshots.Upsert(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: upsert snapshot: %v", ErrPersistence, err)
	}

	if err := w.requests.UpdateStatus(ctx, requestKey, w.completedLabel); err != nil {
		w.log.Warn().Err(err).Str("request_key", requestKey).Msg("request mirror update failed")
	}

	if transitioned {
		ev := StatusChangedEvent{
			RequestKey:     requestKey,
			FromStatus:     status,
			ToStatus:       w.completedLabel,
			RequesterID:    requesterID,
			OrganizationID: orgID,
			DepartmentID:   deptID,
			ActorID:        input.Actor.UserID,
			ActorName:      input.Actor.FullName,
		}
		if err := w.notifier.OnStatusChanged(ctx, ev); err != nil {
			w.log.Error().Err(err).Str("request_key", requestKey).Msg("status-changed fan-out failed")
		}
	}

	return saved, nil
}

func (w *Workflow) lookupRequester(ctx context.Context, email string) *model.User {
	if email == "" {
		return nil
	}
	user, err := w.users.FindByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return user
}

func mapTrackerErr(err error) error {
	var rejected *tracker.RejectedError
	switch {
	case errors.As(err, &rejected):
		return fmt.Errorf("%w: status %d: %s", ErrTransitionRejected, rejected.StatusCode, rejected.Body)
	case errors.Is(err, tracker.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrExternalTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrExternalUnavailable, err)
	}
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
