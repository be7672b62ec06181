package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nurpe/negotiations-service/internal/model"
)

// NotificationStore persists fan-out artifacts.
type NotificationStore interface {
	Insert(ctx context.Context, n model.Notification) (*model.Notification, error)
	CountUnreadForRecipient(ctx context.Context, n model.Notification) (int64, error)
}

// LivePublisher pushes created notifications and unread counts to connected
// subscribers. Delivery is best-effort and must never block or fail the
// write path; implementations swallow their own errors.
type LivePublisher interface {
	PublishNotification(ctx context.Context, n model.Notification)
	PublishUnreadCount(ctx context.Context, n model.Notification, count int64)
}

// Fanout materializes targeted notification records for domain events.
type Fanout struct {
	store NotificationStore
	live  LivePublisher
	log   zerolog.Logger
}

func NewFanout(store NotificationStore, live LivePublisher, log zerolog.Logger) *Fanout {
	return &Fanout{store: store, live: live, log: log}
}

type StatusChangedEvent struct {
	RequestKey     string
	FromStatus     string
	ToStatus       string
	RequesterID    string
	OrganizationID *int64
	DepartmentID   *int64
	ActorID        string
	ActorName      string
}

type RequestCreatedEvent struct {
	RequestKey     string
	CreatorID      string
	CreatorName    string
	OrganizationID *int64
	DepartmentID   *int64
}

// OnStatusChanged emits notifications for a request transition: one directly
// to the requester when known, one per org/department-scoped role when any
// scoping is known, and a single global broadcast when nothing is.
func (f *Fanout) OnStatusChanged(ctx context.Context, ev StatusChangedEvent) error {
	from, to := ev.FromStatus, ev.ToStatus
	base := model.Notification{
		Title:      "Request status changed",
		Message:    fmt.Sprintf("Request %s moved from %q to %q", ev.RequestKey, ev.FromStatus, ev.ToStatus),
		RequestKey: ev.RequestKey,
		SenderID:   ev.ActorID,
		SenderName: ev.ActorName,
		FromStatus: &from,
		ToStatus:   &to,
	}
	return f.emit(ctx, base, ev.RequesterID, ev.OrganizationID, ev.DepartmentID)
}

// OnRequestCreated emits the same fan-out shape for a newly registered
// request, without transition fields.
func (f *Fanout) OnRequestCreated(ctx context.Context, ev RequestCreatedEvent) error {
	base := model.Notification{
		Title:      "New request",
		Message:    fmt.Sprintf("Request %s was created by %s", ev.RequestKey, ev.CreatorName),
		RequestKey: ev.RequestKey,
		SenderID:   ev.CreatorID,
		SenderName: ev.CreatorName,
	}
	return f.emit(ctx, base, ev.CreatorID, ev.OrganizationID, ev.DepartmentID)
}

func (f *Fanout) emit(ctx context.Context, base model.Notification, userID string, orgID, deptID *int64) error {
	var targets []model.Notification
	seen := make(map[string]struct{})

	add := func(n model.Notification) {
		key := scopeKey(n)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		targets = append(targets, n)
	}

	if userID != "" {
		direct := base
		uid := userID
		direct.RecipientUserID = &uid
		add(direct)
	}

	if orgID != nil || deptID != nil {
		for _, role := range []model.Role{model.RoleManager, model.RoleCoordinator} {
			scoped := base
			r := role
			scoped.RecipientRole = &r
			scoped.RecipientOrganizationID = orgID
			scoped.RecipientDepartmentID = deptID
			add(scoped)
		}
	}

	if len(targets) == 0 {
		// nothing to scope on: one global broadcast
		add(base)
	}

	for _, target := range targets {
		saved, err := f.store.Insert(ctx, target)
		if err != nil {
			return fmt.Errorf("%w: insert notification: %v", ErrPersistence, err)
		}
		f.push(ctx, *saved)
	}
	return nil
}

// push delivers the live update. Failures are logged and dropped.
func (f *Fanout) push(ctx context.Context, n model.Notification) {
	if f.live == nil {
		return
	}
	f.live.PublishNotification(ctx, n)

	count, err := f.store.CountUnreadForRecipient(ctx, n)
	if err != nil {
		f.log.Debug().Err(err).Str("request_key", n.RequestKey).Msg("unread recount failed")
		return
	}
	f.live.PublishUnreadCount(ctx, n, count)
}

func scopeKey(n model.Notification) string {
	key := "u:"
	if n.RecipientUserID != nil {
		key += *n.RecipientUserID
	}
	key += "|r:"
	if n.RecipientRole != nil {
		key += string(*n.RecipientRole)
	}
	key += "|o:"
	if n.RecipientOrganizationID != nil {
		key += fmt.Sprint(*n.RecipientOrganizationID)
	}
	key += "|d:"
	if n.RecipientDepartmentID != nil {
		key += fmt.Sprint(*n.RecipientDepartmentID)
	}
	return key
}
