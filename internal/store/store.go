package store

import (
	"context"

	"prowl/internal/store/model"
)

// ConfigStore is the durable key/value configuration surface.
type ConfigStore interface {
	// Get returns the stored value for key, or def when absent.
	Get(key, def string) (string, error)
	// Set writes key=value durably.
	Set(key, value string) error
	// All returns every stored key/value pair.
	All() (map[string]string, error)
}

// TradeLog is the append-only history of closed positions.
type TradeLog interface {
	Append(ctx context.Context, trade model.TradeRecord) error
	Recent(ctx context.Context, limit int) ([]model.TradeRecord, error)
	// OutcomeTally groups trade counts by symbol and outcome kind.
	OutcomeTally(ctx context.Context) (map[string]map[string]int, error)
}

// AccountLedger appends a trade and adjusts the persisted balance and
// cumulative score in one transaction.
type AccountLedger interface {
	ApplyOutcome(ctx context.Context, trade model.TradeRecord, balanceDelta, scoreDelta float64) error
}
