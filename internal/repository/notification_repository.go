package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/visibility"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `
	id,
	title,
	message,
	request_key,
	recipient_user_id,
	recipient_role,
	recipient_department_id,
	recipient_organization_id,
	sender_id,
	sender_name,
	from_status,
	to_status,
	is_read,
	created_at
`

func (r *NotificationRepository) Insert(ctx context.Context, n model.Notification) (*model.Notification, error) {
	var saved model.Notification
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO notifications (
			title,
			message,
			request_key,
			recipient_user_id,
			recipient_role,
			recipient_department_id,
			recipient_organization_id,
			sender_id,
			sender_name,
			from_status,
			to_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+notificationColumns,
		n.Title,
		n.Message,
		n.RequestKey,
		n.RecipientUserID,
		n.RecipientRole,
		n.RecipientDepartmentID,
		n.RecipientOrganizationID,
		n.SenderID,
		n.SenderName,
		n.FromStatus,
		n.ToStatus,
	).Scan(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListVisible returns the notifications the scope admits, newest first.
func (r *NotificationRepository) ListVisible(ctx context.Context, scope visibility.Scope, onlyUnread bool) ([]model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications`
	cond, args := scope.NotificationFilter()
	if onlyUnread {
		if cond != "" {
			cond += " AND "
		}
		cond += "is_read = FALSE"
	}
	if cond != "" {
		query += " WHERE " + cond
	}
	query += " ORDER BY created_at DESC"

	var notifications []model.Notification
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, scope visibility.Scope) (int64, error) {
	query := `SELECT COUNT(*) FROM notifications`
	cond, args := scope.NotificationFilter()
	if cond != "" {
		cond += " AND "
	}
	cond += "is_read = FALSE"
	query += " WHERE " + cond

	var count int64
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountUnreadForRecipient counts unread rows addressed to exactly the same
// recipient scope as the given notification.
func (r *NotificationRepository) CountUnreadForRecipient(ctx context.Context, n model.Notification) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM notifications
		WHERE is_read = FALSE
			AND recipient_user_id IS NOT DISTINCT FROM ?
			AND recipient_role IS NOT DISTINCT FROM ?
			AND recipient_department_id IS NOT DISTINCT FROM ?
			AND recipient_organization_id IS NOT DISTINCT FROM ?
	`,
		n.RecipientUserID,
		n.RecipientRole,
		n.RecipientDepartmentID,
		n.RecipientOrganizationID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead flips the read flag on one visible notification.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, scope visibility.Scope) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = ?`
	args := []interface{}{id}
	if cond, condArgs := scope.NotificationFilter(); cond != "" {
		query += " AND " + cond
		args = append(args, condArgs...)
	}

	result := r.db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, scope visibility.Scope) error {
	query := `UPDATE notifications SET is_read = TRUE`
	cond, args := scope.NotificationFilter()
	if cond != "" {
		cond += " AND "
	}
	cond += "is_read = FALSE"
	query += " WHERE " + cond
	return r.db.WithContext(ctx).Exec(query, args...).Error
}

func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID, scope visibility.Scope) error {
	query := `DELETE FROM notifications WHERE id = ?`
	args := []interface{}{id}
	if cond, condArgs := scope.NotificationFilter(); cond != "" {
		query += " AND " + cond
		args = append(args, condArgs...)
	}

	result := r.db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteAll removes every notification the scope admits.
func (r *NotificationRepository) DeleteAll(ctx context.Context, scope visibility.Scope) error {
	query := `DELETE FROM notifications`
	cond, args := scope.NotificationFilter()
	if cond != "" {
		query += " WHERE " + cond
	}
	return r.db.WithContext(ctx).Exec(query, args...).Error
}
