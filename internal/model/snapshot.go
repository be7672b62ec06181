package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const SnapshotStatusCompleted = "completed"

// NegotiationSnapshot is the durable completed-contract record built when a
// request reaches the completed status. At most one row exists per request
// key; re-running completion upserts the same row.
type NegotiationSnapshot struct {
	ID             uuid.UUID
	RequestKey     string
	Vendor         string
	Product        string
	RequesterName  string
	RequesterEmail string
	OrganizationID *int64
	DepartmentID   *int64
	CurrentCount   int
	NewCount       int
	Unit           string
	Profit         decimal.Decimal
	DueDate        *time.Time
	RenewalDate    *time.Time
	DurationMonths *int
	Comment        string
	Status         string
	CompletedAt    time.Time
	CreatedAt      time.Time
}
