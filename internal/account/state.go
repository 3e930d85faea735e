package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"prowl/internal/store"
	"prowl/internal/store/model"
	"prowl/internal/store/sqlite"
)

// Defaults seeded on first access.
const (
	DefaultBalance    = "1000.0"
	DefaultScore      = "0"
	DefaultReportTime = "09:00"
	DefaultLeverage   = "10"
	DefaultManual     = "0"
)

// State is the explicit handle over the persisted balance and cumulative
// score, owned by the controller and passed to the lifecycle manager for
// atomic updates at position close.
type State struct {
	mu     sync.Mutex
	cfg    store.ConfigStore
	ledger store.AccountLedger
}

func NewState(cfg store.ConfigStore, ledger store.AccountLedger) (*State, error) {
	s := &State{cfg: cfg, ledger: ledger}
	seeds := map[string]string{
		sqlite.KeyBalance:      DefaultBalance,
		sqlite.KeyScore:        DefaultScore,
		sqlite.KeyReportTime:   DefaultReportTime,
		sqlite.KeyLeverage:     DefaultLeverage,
		sqlite.KeyManualAmount: DefaultManual,
	}
	for key, def := range seeds {
		current, err := s.cfg.Get(key, "")
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		if current == "" {
			if err := s.cfg.Set(key, def); err != nil {
				return nil, fmt.Errorf("seeding %s: %w", key, err)
			}
		}
	}
	return s, nil
}

func (s *State) Balance() (float64, error) {
	return s.getFloat(sqlite.KeyBalance, DefaultBalance)
}

func (s *State) Score() (float64, error) {
	return s.getFloat(sqlite.KeyScore, DefaultScore)
}

func (s *State) Leverage() int {
	v, err := s.getFloat(sqlite.KeyLeverage, DefaultLeverage)
	if err != nil || v <= 0 {
		return 10
	}
	return int(v)
}

func (s *State) SetLeverage(leverage int) error {
	if leverage <= 0 {
		return fmt.Errorf("leverage must be positive, got %d", leverage)
	}
	return s.cfg.Set(sqlite.KeyLeverage, strconv.Itoa(leverage))
}

func (s *State) ManualAmount() float64 {
	v, err := s.getFloat(sqlite.KeyManualAmount, DefaultManual)
	if err != nil {
		return 0
	}
	return v
}

func (s *State) SetManualAmount(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("manual amount cannot be negative, got %v", amount)
	}
	return s.cfg.Set(sqlite.KeyManualAmount, strconv.FormatFloat(amount, 'f', -1, 64))
}

func (s *State) ReportTime() string {
	v, err := s.cfg.Get(sqlite.KeyReportTime, DefaultReportTime)
	if err != nil || strings.TrimSpace(v) == "" {
		return DefaultReportTime
	}
	return v
}

func (s *State) AvailablePairs() []string {
	v, err := s.cfg.Get(sqlite.KeyAvailablePairs, "")
	if err != nil || strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *State) SetAvailablePairs(pairs []string) error {
	return s.cfg.Set(sqlite.KeyAvailablePairs, strings.Join(pairs, ","))
}

// Apply records the trade and shifts balance/score in one store transaction.
func (s *State) Apply(ctx context.Context, trade model.TradeRecord, balanceDelta, scoreDelta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.ApplyOutcome(ctx, trade, balanceDelta, scoreDelta)
}

func (s *State) getFloat(key, def string) (float64, error) {
	v, err := s.cfg.Get(key, def)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("config key %s holds non-numeric value %q", key, v)
	}
	return f, nil
}
