package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ContractRegister is the renderable view of completed-contract snapshots
// handed to the export generators.
type ContractRegister struct {
	GeneratedAt time.Time
	Snapshots   []NegotiationSnapshot
	TotalProfit decimal.Decimal
}
