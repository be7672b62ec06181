package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a fan-out artifact. A row with all four recipient-scoping
// fields nil is a global broadcast visible to every principal.
type Notification struct {
	ID                      uuid.UUID
	Title                   string
	Message                 string
	RequestKey              string
	RecipientUserID         *string
	RecipientRole           *Role
	RecipientDepartmentID   *int64
	RecipientOrganizationID *int64
	SenderID                string
	SenderName              string
	FromStatus              *string
	ToStatus                *string
	IsRead                  bool
	CreatedAt               time.Time
}

// IsBroadcast reports whether the notification targets everyone.
func (n Notification) IsBroadcast() bool {
	return n.RecipientUserID == nil &&
		n.RecipientRole == nil &&
		n.RecipientDepartmentID == nil &&
		n.RecipientOrganizationID == nil
}
