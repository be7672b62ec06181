package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/visibility"
)

// NotificationReader is the per-principal notification surface.
type NotificationReader interface {
	ListVisible(ctx context.Context, scope visibility.Scope, onlyUnread bool) ([]model.Notification, error)
	CountUnread(ctx context.Context, scope visibility.Scope) (int64, error)
	MarkRead(ctx context.Context, id uuid.UUID, scope visibility.Scope) error
	MarkAllRead(ctx context.Context, scope visibility.Scope) error
	Delete(ctx context.Context, id uuid.UUID, scope visibility.Scope) error
	DeleteAll(ctx context.Context, scope visibility.Scope) error
}

// NotificationService answers notification queries for one principal at a
// time, always through the same visibility scope used for request search.
type NotificationService struct {
	store NotificationReader
}

func NewNotificationService(store NotificationReader) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, principal model.Principal, onlyUnread bool) ([]model.Notification, error) {
	notifications, err := s.store.ListVisible(ctx, visibility.ScopeFor(principal), onlyUnread)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %v", ErrPersistence, err)
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, principal model.Principal) (int64, error) {
	count, err := s.store.CountUnread(ctx, visibility.ScopeFor(principal))
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %v", ErrPersistence, err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	err := s.store.MarkRead(ctx, id, visibility.ScopeFor(principal))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: mark read: %v", ErrPersistence, err)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, principal model.Principal) error {
	if err := s.store.MarkAllRead(ctx, visibility.ScopeFor(principal)); err != nil {
		return fmt.Errorf("%w: mark all read: %v", ErrPersistence, err)
	}
	return nil
}

func (s *NotificationService) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	err := s.store.Delete(ctx, id, visibility.ScopeFor(principal))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: delete notification: %v", ErrPersistence, err)
	}
	return nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, principal model.Principal) error {
	if err := s.store.DeleteAll(ctx, visibility.ScopeFor(principal)); err != nil {
		return fmt.Errorf("%w: delete notifications: %v", ErrPersistence, err)
	}
	return nil
}
