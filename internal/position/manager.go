package position

import (
	"context"
	"errors"
	"sync"
	"time"

	"prowl/internal/gateway/exchange"
	"prowl/internal/logger"

	"github.com/google/uuid"
)

// ErrPositionActive is returned when an open is attempted while a prior
// lifecycle has not reached a terminal state. At most one position may be
// non-terminal system-wide.
var ErrPositionActive = errors.New("a position is already active")

// Params are the lifecycle tunables with the Default strategy values.
type Params struct {
	TPOffset           float64       // initial take-profit offset above entry
	TrailStep          float64       // trailing step below the high-water mark
	StopPercent        float64       // static stop-loss below entry
	PollInterval       time.Duration // price poll cadence while monitoring
	ErrorBackoff       time.Duration // retry delay after a failed poll
	MaxDuration        time.Duration // forced close horizon
	TimeoutScoreFactor float64       // score delta multiplier for timeouts
}

func (p Params) withDefaults() Params {
	if p.TPOffset <= 0 {
		p.TPOffset = 0.02
	}
	if p.TrailStep <= 0 {
		p.TrailStep = 0.005
	}
	if p.StopPercent <= 0 {
		p.StopPercent = 0.01
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 2 * time.Second
	}
	if p.ErrorBackoff <= 0 {
		p.ErrorBackoff = 5 * time.Second
	}
	if p.MaxDuration <= 0 {
		p.MaxDuration = 600 * time.Second
	}
	if p.TimeoutScoreFactor <= 0 {
		p.TimeoutScoreFactor = 0.5
	}
	return p
}

// Manager owns the open→monitor→close lifecycle of the single position.
type Manager struct {
	gw  exchange.Gateway
	cfg Params

	nowFn   func() time.Time
	sleepFn func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	current *Position
}

func NewManager(gw exchange.Gateway, cfg Params) *Manager {
	return &Manager{
		gw:      gw,
		cfg:     cfg.withDefaults(),
		nowFn:   time.Now,
		sleepFn: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Current returns a copy of the active position, if any.
func (m *Manager) Current() (Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Position{}, false
	}
	return *m.current, true
}

// Open places a market buy and transitions Opening → Monitoring. entryHint
// is the quoted ask, used when the fill does not report an average price.
// Fails with ErrPositionActive while a prior position is non-terminal.
func (m *Manager) Open(ctx context.Context, symbol string, quantity float64, leverage int, entryHint float64) (*Position, error) {
	m.mu.Lock()
	if m.current != nil && !m.current.State.Terminal() {
		m.mu.Unlock()
		return nil, ErrPositionActive
	}
	pos := &Position{
		ID:       uuid.NewString(),
		Symbol:   symbol,
		Quantity: quantity,
		Leverage: leverage,
		State:    StateOpening,
	}
	m.current = pos
	m.mu.Unlock()

	order, err := m.gw.CreateMarketBuyOrder(ctx, symbol, quantity)
	if err != nil {
		m.mu.Lock()
		pos.State = StateClosedError
		m.mu.Unlock()
		return nil, err
	}

	entry := order.AvgPrice
	if entry <= 0 {
		entry = entryHint
	}
	m.mu.Lock()
	pos.EntryPrice = entry
	pos.OpenedAt = m.nowFn()
	pos.HighWaterMark = entry
	pos.TakeProfit = entry * (1 + m.cfg.TPOffset)
	pos.StopLoss = entry * (1 - m.cfg.StopPercent)
	if order.Quantity > 0 {
		pos.Quantity = order.Quantity
	}
	pos.OrderPayload = order.Raw
	pos.State = StateMonitoring
	m.mu.Unlock()

	logger.Infof("position: opened %s qty=%v entry=%.4f tp=%.4f sl=%.4f", symbol, pos.Quantity, entry, pos.TakeProfit, pos.StopLoss)
	return pos, nil
}

// Monitor polls the price until take-profit, stop-loss, timeout or stop.
// It always leaves the position in a terminal state.
func (m *Manager) Monitor(ctx context.Context, pos *Position) Outcome {
	deadline := pos.OpenedAt.Add(m.cfg.MaxDuration)

	for m.nowFn().Before(deadline) {
		if ctx.Err() != nil {
			return m.closeOnStop(pos)
		}

		ticker, err := m.gw.FetchTicker(ctx, pos.Symbol)
		if err != nil {
			// never abandon the position on a single fetch failure
			logger.Warnf("position: poll %s failed, backing off: %v", pos.Symbol, err)
			if serr := m.sleepFn(ctx, m.cfg.ErrorBackoff); serr != nil {
				return m.closeOnStop(pos)
			}
			continue
		}
		price := ticker.LastPrice

		m.mu.Lock()
		newHigh := price > pos.HighWaterMark
		if newHigh {
			pos.HighWaterMark = price
			if trailed := price * (1 - m.cfg.TrailStep); trailed > pos.TakeProfit {
				// the exit target only ratchets upward, it never loosens
				pos.TakeProfit = trailed
			}
		}
		tp, sl := pos.TakeProfit, pos.StopLoss
		m.mu.Unlock()

		if newHigh {
			// a tick that raises the high-water mark only tightens the
			// target; the exit triggers on a later retracement tick
			if err := m.sleepFn(ctx, m.cfg.PollInterval); err != nil {
				return m.closeOnStop(pos)
			}
			continue
		}

		if price >= tp {
			logger.Infof("position: TP hit for %s at %.4f", pos.Symbol, price)
			m.sellAll(ctx, pos)
			return m.finish(pos, StateClosedTakeProfit, Outcome{
				Kind:        KindTakeProfit,
				ExitPrice:   price,
				RealizedPnl: (price - pos.EntryPrice) * float64(pos.Leverage),
				ScoreDelta:  1,
			})
		}
		if price <= sl {
			logger.Infof("position: SL hit for %s at %.4f", pos.Symbol, price)
			m.sellAll(ctx, pos)
			return m.finish(pos, StateClosedStopLoss, Outcome{
				Kind:        KindStopLoss,
				ExitPrice:   price,
				RealizedPnl: -(pos.EntryPrice - price) * float64(pos.Leverage),
				ScoreDelta:  -1,
			})
		}

		if err := m.sleepFn(ctx, m.cfg.PollInterval); err != nil {
			return m.closeOnStop(pos)
		}
	}

	return m.closeOnTimeout(ctx, pos)
}

// closeOnTimeout force-closes at the current market price once the maximum
// duration has elapsed with neither bound hit. Timeouts carry half the score
// delta of a clean signal hit.
func (m *Manager) closeOnTimeout(ctx context.Context, pos *Position) Outcome {
	logger.Infof("position: %s timed out, closing at market", pos.Symbol)
	ticker, err := m.gw.FetchTicker(ctx, pos.Symbol)
	if err != nil {
		logger.Errorf("position: closing timed out %s failed: %v", pos.Symbol, err)
		return m.finish(pos, StateClosedError, Outcome{Kind: KindError, Err: err})
	}
	price := ticker.LastPrice
	m.sellAll(ctx, pos)

	out := Outcome{ExitPrice: price}
	if price > pos.EntryPrice {
		out.Kind = KindTimeoutProfit
		out.RealizedPnl = (price - pos.EntryPrice) * float64(pos.Leverage)
		out.ScoreDelta = m.cfg.TimeoutScoreFactor
	} else {
		out.Kind = KindTimeoutLoss
		out.RealizedPnl = -(pos.EntryPrice - price) * float64(pos.Leverage)
		out.ScoreDelta = -m.cfg.TimeoutScoreFactor
	}
	return m.finish(pos, StateClosedTimeout, out)
}

// closeOnStop handles an operator stop mid-monitor: close best effort and
// surface the cancellation so the controller can skip accounting.
func (m *Manager) closeOnStop(pos *Position) Outcome {
	logger.Infof("position: stop requested while monitoring %s, closing best effort", pos.Symbol)
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m.sellAll(closeCtx, pos)
	return m.finish(pos, StateClosedError, Outcome{Kind: KindError, Err: context.Canceled})
}

func (m *Manager) sellAll(ctx context.Context, pos *Position) {
	if _, err := m.gw.CreateMarketSellOrder(ctx, pos.Symbol, pos.Quantity); err != nil {
		logger.Errorf("position: sell order for %s failed: %v", pos.Symbol, err)
	}
}

func (m *Manager) finish(pos *Position, state State, out Outcome) Outcome {
	m.mu.Lock()
	pos.State = state
	m.mu.Unlock()
	return out
}
