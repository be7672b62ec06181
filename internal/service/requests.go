package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nurpe/negotiations-service/internal/model"
	"github.com/nurpe/negotiations-service/internal/visibility"
)

// RequestStore is the mirror-table surface for request search.
type RequestStore interface {
	Upsert(ctx context.Context, request model.Request) error
	GetByKey(ctx context.Context, requestKey string) (*model.Request, error)
	Search(ctx context.Context, scope visibility.Scope, status, query string) ([]model.Request, error)
}

type CreatedNotifier interface {
	OnRequestCreated(ctx context.Context, ev RequestCreatedEvent) error
}

// RequestService mirrors tracker issues locally and answers scoped searches.
type RequestService struct {
	store    RequestStore
	notifier CreatedNotifier
	log      zerolog.Logger
}

func NewRequestService(store RequestStore, notifier CreatedNotifier, log zerolog.Logger) *RequestService {
	return &RequestService{store: store, notifier: notifier, log: log}
}

type RegisterRequestInput struct {
	RequestKey string
	Summary    string
	Status     string
	Creator    model.Principal
}

// Register records a newly created tracker issue in the mirror table and
// fans out the created event.
func (s *RequestService) Register(ctx context.Context, input RegisterRequestInput) (*model.Request, error) {
	requestKey := strings.TrimSpace(input.RequestKey)
	if requestKey == "" {
		return nil, fmt.Errorf("%w: request key is required", ErrInvalidInput)
	}

	request := model.Request{
		RequestKey:     requestKey,
		Summary:        input.Summary,
		Status:         input.Status,
		RequesterID:    input.Creator.UserID,
		RequesterName:  input.Creator.FullName,
		RequesterEmail: input.Creator.Email,
		OrganizationID: input.Creator.OrganizationID,
		DepartmentID:   input.Creator.DepartmentID,
	}
	if err := s.store.Upsert(ctx, request); err != nil {
		return nil, fmt.Errorf("%w: upsert request: %v", ErrPersistence, err)
	}

	ev := RequestCreatedEvent{
		RequestKey:     requestKey,
		CreatorID:      input.Creator.UserID,
		CreatorName:    input.Creator.FullName,
		OrganizationID: input.Creator.OrganizationID,
		DepartmentID:   input.Creator.DepartmentID,
	}
	if err := s.notifier.OnRequestCreated(ctx, ev); err != nil {
		s.log.Error().Err(err).Str("request_key", requestKey).Msg("created fan-out failed")
	}

	return &request, nil
}

// Search lists the requests the principal's scope admits.
func (s *RequestService) Search(ctx context.Context, principal model.Principal, status, query string) ([]model.Request, error) {
	scope := visibility.ScopeFor(principal)
	requests, err := s.store.Search(ctx, scope, status, query)
	if err != nil {
		return nil, fmt.Errorf("%w: search requests: %v", ErrPersistence, err)
	}
	return requests, nil
}

// Get returns one request if the principal may see it.
func (s *RequestService) Get(ctx context.Context, principal model.Principal, requestKey string) (*model.Request, error) {
	request, err := s.store.GetByKey(ctx, requestKey)
	if err != nil {
		return nil, ErrNotFound
	}
	if !visibility.ScopeFor(principal).MatchesRequest(*request) {
		return nil, ErrPermissionDenied
	}
	return request, nil
}
