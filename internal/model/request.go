package model

import "time"

// Request is the local mirror of a tracker issue: enough of the issue to
// search and scope without round-tripping to the external store. The tracker
// stays the system of record for status and transitions.
type Request struct {
	RequestKey     string
	Summary        string
	Status         string
	RequesterID    string
	RequesterName  string
	RequesterEmail string
	OrganizationID *int64
	DepartmentID   *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
