package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Proposal is one priced offer in the per-request negotiation ledger.
// Rows are append-only; SeqNo is assigned by the repository at insert time
// and is contiguous starting at 1 within a request key.
type Proposal struct {
	ID             uuid.UUID
	RequestKey     string
	SeqNo          int
	UnitPrice      decimal.Decimal
	Quantity       int
	Total          decimal.Decimal
	Note           string
	IsFinal        bool
	FinalSubmitted bool
	CreatedAt      time.Time
}
