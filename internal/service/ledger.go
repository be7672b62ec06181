package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/negotiations-service/internal/model"
)

// ProposalStore is the persistence surface the ledger needs.
type ProposalStore interface {
	Append(ctx context.Context, proposal model.Proposal) (*model.Proposal, error)
	ListByRequest(ctx context.Context, requestKey string) ([]model.Proposal, error)
}

// Ledger maintains the append-only sequence of priced proposals per request
// and derives the negotiated profit from it.
type Ledger struct {
	store ProposalStore
	locks *keyLock
	log   zerolog.Logger
}

func NewLedger(store ProposalStore, log zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		locks: newKeyLock(),
		log:   log,
	}
}

type AppendProposalInput struct {
	RequestKey string
	UnitPrice  decimal.Decimal
	Quantity   int
	// Total overrides the computed unit price × quantity when set.
	Total   *decimal.Decimal
	Note    string
	IsFinal bool
}

// Append validates and inserts one proposal. The sequence number is assigned
// here, never by the caller, and assignment is serialized per request key.
func (l *Ledger) Append(ctx context.Context, input AppendProposalInput) (*model.Proposal, error) {
	requestKey := strings.TrimSpace(input.RequestKey)
	if requestKey == "" {
		return nil, fmt.Errorf("%w: request key is required", ErrInvalidInput)
	}
	if input.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	if input.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: unit price must not be negative", ErrInvalidInput)
	}

	total := input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
	if input.Total != nil {
		total = *input.Total
	}

	unlock := l.locks.Lock(requestKey)
	defer unlock()

	saved, err := l.store.Append(ctx, model.Proposal{
		RequestKey:     requestKey,
		UnitPrice:      input.UnitPrice,
		Quantity:       input.Quantity,
		Total:          total,
		Note:           input.Note,
		IsFinal:        input.IsFinal,
		FinalSubmitted: input.IsFinal,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: append proposal: %v", ErrPersistence, err)
	}

	l.log.Debug().
		Str("request_key", requestKey).
		Int("seq_no", saved.SeqNo).
		Bool("is_final", saved.IsFinal).
		Msg("proposal appended")
	return saved, nil
}

// List returns the ledger for a request, ascending by sequence number.
func (l *Ledger) List(ctx context.Context, requestKey string) ([]model.Proposal, error) {
	requestKey = strings.TrimSpace(requestKey)
	if requestKey == "" {
		return nil, fmt.Errorf("%w: request key is required", ErrInvalidInput)
	}
	proposals, err := l.store.ListByRequest(ctx, requestKey)
	if err != nil {
		return nil, fmt.Errorf("%w: list proposals: %v", ErrPersistence, err)
	}
	return proposals, nil
}

// NegotiatedProfit computes how much was saved by negotiating down from the
// last counteroffer to the agreed final price: the total of the nearest
// non-final proposal preceding the final one, minus the final total. Missing
// data degrades to zero; this is a documented default, not an error.
func (l *Ledger) NegotiatedProfit(ctx context.Context, requestKey string) (decimal.Decimal, error) {
	proposals, err := l.store.ListByRequest(ctx, requestKey)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: list proposals: %v", ErrPersistence, err)
	}
	return negotiatedProfit(proposals), nil
}

func negotiatedProfit(proposals []model.Proposal) decimal.Decimal {
	if len(proposals) < 2 {
		return decimal.Zero
	}

	finalIdx := -1
	for i := len(proposals) - 1; i >= 0; i-- {
		if proposals[i].IsFinal {
			finalIdx = i
			break
		}
	}
	if finalIdx < 0 {
		return decimal.Zero
	}

	counterIdx := -1
	for i := finalIdx - 1; i >= 0; i-- {
		if !proposals[i].IsFinal {
			counterIdx = i
			break
		}
	}
	if counterIdx < 0 {
		return decimal.Zero
	}

	return proposals[counterIdx].Total.Sub(proposals[finalIdx].Total)
}
