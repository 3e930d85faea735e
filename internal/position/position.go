package position

import "time"

// State of the lifecycle machine. Closed states are terminal.
type State string

const (
	StateOpening          State = "opening"
	StateMonitoring       State = "monitoring"
	StateClosedTakeProfit State = "closed_take_profit"
	StateClosedStopLoss   State = "closed_stop_loss"
	StateClosedTimeout    State = "closed_timeout"
	StateClosedError      State = "closed_error"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateClosedTakeProfit, StateClosedStopLoss, StateClosedTimeout, StateClosedError:
		return true
	}
	return false
}

// Kind classifies a trade outcome. The strings are persisted in the trade
// log, so they stay stable.
type Kind string

const (
	KindTakeProfit    Kind = "TP"
	KindStopLoss      Kind = "SL"
	KindTimeoutProfit Kind = "TIMEOUT_PROFIT"
	KindTimeoutLoss   Kind = "TIMEOUT_LOSS"
	KindError         Kind = "ERROR"
)

// Position is one open long. Mutated only by the owning Manager.
type Position struct {
	ID            string    `json:"id"`
	Symbol        string    `json:"symbol"`
	EntryPrice    float64   `json:"entry_price"`
	Quantity      float64   `json:"quantity"`
	Leverage      int       `json:"leverage"`
	OpenedAt      time.Time `json:"opened_at"`
	HighWaterMark float64   `json:"high_water_mark"`
	TakeProfit    float64   `json:"take_profit"`
	StopLoss      float64   `json:"stop_loss"`
	State         State     `json:"state"`

	// OrderPayload is the raw fill response of the opening order, kept for
	// the trade record.
	OrderPayload []byte `json:"-"`
}

// Outcome is the terminal result of one monitored position.
type Outcome struct {
	Kind        Kind    `json:"kind"`
	ExitPrice   float64 `json:"exit_price"`
	RealizedPnl float64 `json:"realized_pnl"`
	ScoreDelta  float64 `json:"score_delta"`
	Err         error   `json:"-"`
}
