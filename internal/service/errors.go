package service

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTransitionKey = errors.New("invalid transition key")
	ErrTransitionRejected   = errors.New("transition rejected")
	ErrExternalTimeout      = errors.New("external store timeout")
	ErrExternalUnavailable  = errors.New("external store unavailable")
	ErrPersistence          = errors.New("persistence failure")
)
