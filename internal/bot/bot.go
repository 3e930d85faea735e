package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"prowl/internal/account"
	"prowl/internal/allocation"
	"prowl/internal/config"
	"prowl/internal/gateway/exchange"
	"prowl/internal/gateway/notifier"
	"prowl/internal/logger"
	"prowl/internal/market"
	"prowl/internal/position"
	"prowl/internal/scanner"
	"prowl/internal/scoring"
	"prowl/internal/store"
	"prowl/internal/store/model"

	"gorm.io/datatypes"
)

// ActionLog receives significant bot events for the persistent audit trail.
type ActionLog interface {
	LogAction(ctx context.Context, message string) error
}

// Bot is the top-level trading controller: scan, open, monitor, record,
// sleep, repeat. One position at a time, always.
type Bot struct {
	gw       exchange.Gateway
	state    *account.State
	trades   store.TradeLog
	actions  ActionLog
	notifier notifier.TextNotifier

	mu         sync.Mutex
	strategy   config.StrategyConfig
	pending    *config.StrategyConfig
	name       string
	candidates scanner.CandidateSink
	scanner    *scanner.Scanner
	sizer      allocation.Sizer
	manager    *position.Manager

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	sleepFn func(ctx context.Context, d time.Duration) error
}

func New(gw exchange.Gateway, state *account.State, trades store.TradeLog, candidates scanner.CandidateSink, actions ActionLog, notif notifier.TextNotifier, strat config.StrategyConfig) *Bot {
	if notif == nil {
		notif = notifier.Noop{}
	}
	b := &Bot{
		gw:         gw,
		state:      state,
		trades:     trades,
		candidates: candidates,
		actions:    actions,
		notifier:   notif,
		strategy:   strat,
		name:       strat.Name,
		sleepFn:    sleepCtx,
	}
	b.rebuild()
	return b
}

// rebuild constructs scanner, sizer and lifecycle manager from the current
// strategy tunables. Callers hold b.mu except during construction.
func (b *Bot) rebuild() {
	s := b.strategy
	b.scanner = scanner.New(b.gw, scoring.NewModel(s.VolumeSpike), b.candidates, scanner.Params{
		ScoreThreshold:  s.ScoreThreshold,
		TopN:            s.TopN,
		Timeframe:       s.Timeframe,
		CandleLimit:     s.CandleLimit,
		MinCandles:      s.MinCandles,
		AvgVolumeWindow: s.AvgVolumeWindow,
	})
	b.sizer = allocation.NewSizer(allocation.Tiers{
		High: s.TierHigh, Mid: s.TierMid, Low: s.TierLow,
		HighFrac: s.TierHighFrac, MidFrac: s.TierMidFrac,
		LowFrac: s.TierLowFrac, BaseFrac: s.TierBaseFrac,
	})
	b.manager = position.NewManager(b.gw, position.Params{
		TPOffset:           s.TPOffset,
		TrailStep:          s.TrailStep,
		StopPercent:        s.StopPercent,
		PollInterval:       s.PollInterval(),
		ErrorBackoff:       s.ErrorBackoff(),
		MaxDuration:        s.MaxDuration(),
		TimeoutScoreFactor: s.TimeoutScoreFactor,
	})
}

// Start launches the control loop. It returns an error when already running.
func (b *Bot) Start(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return errors.New("bot is already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.done = make(chan struct{})
	done := b.done
	b.mu.Unlock()

	b.logAction(ctx, "bot starting")
	go func() {
		defer close(done)
		defer b.running.Store(false)
		b.run(runCtx)
	}()
	return nil
}

// Stop requests a graceful shutdown and waits for the loop to exit. An
// in-flight exchange call is allowed to complete first.
func (b *Bot) Stop() {
	if !b.running.Load() {
		logger.Infof("bot: not running")
		return
	}
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.mu.Unlock()
	b.logAction(context.Background(), "bot stopping")
	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	b.logAction(context.Background(), "bot stopped")
}

// Running reports whether the control loop is live.
func (b *Bot) Running() bool { return b.running.Load() }

// Strategy returns the active strategy name.
func (b *Bot) Strategy() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// SetStrategy stores the strategy name. Only "Default" has defined behavior;
// the name is kept so the control plane can round-trip it.
func (b *Bot) SetStrategy(name string) {
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
	b.logAction(context.Background(), fmt.Sprintf("strategy set to %s", name))
}

// SetLeverage persists the leverage; it is applied per symbol at open time.
func (b *Bot) SetLeverage(leverage int) error {
	if err := b.state.SetLeverage(leverage); err != nil {
		return err
	}
	b.logAction(context.Background(), fmt.Sprintf("leverage set to %dx", leverage))
	return nil
}

// SetManualAmount persists the operator override stake in USDT.
func (b *Bot) SetManualAmount(amount float64) error {
	if err := b.state.SetManualAmount(amount); err != nil {
		return err
	}
	b.logAction(context.Background(), fmt.Sprintf("manual amount set to %v USDT", amount))
	return nil
}

// ApplyStrategy schedules updated tunables; they take effect at the next
// iteration boundary, never while a position is being monitored.
func (b *Bot) ApplyStrategy(s config.StrategyConfig) {
	b.mu.Lock()
	b.pending = &s
	b.mu.Unlock()
}

// CurrentPosition exposes the monitored position, if any.
func (b *Bot) CurrentPosition() (position.Position, bool) {
	b.mu.Lock()
	mgr := b.manager
	b.mu.Unlock()
	return mgr.Current()
}

func (b *Bot) run(ctx context.Context) {
	logger.Infof("bot: main loop started")
	for {
		if ctx.Err() != nil {
			logger.Infof("bot: main loop exiting")
			return
		}
		b.iteration(ctx)
		if err := b.sleepFn(ctx, b.loopInterval()); err != nil {
			logger.Infof("bot: main loop exiting")
			return
		}
	}
}

// iteration runs one full scan→trade→learn cycle. Nothing that happens in
// here may kill the loop: errors are logged and the next cycle proceeds
// after the normal cooldown.
func (b *Bot) iteration(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("bot: iteration panic recovered: %v", r)
		}
	}()

	b.promotePending()

	universe, markets := b.universe(ctx)
	if err := b.state.SetAvailablePairs(universe); err != nil {
		logger.Warnf("bot: persisting available pairs failed: %v", err)
	}

	candidates, err := b.currentScanner().Scan(ctx, universe)
	if err != nil {
		b.logAction(ctx, fmt.Sprintf("scan cycle aborted: %v", err))
		return
	}
	if len(candidates) == 0 {
		logger.Infof("bot: no high-score targets this cycle")
	} else {
		top := candidates[0]
		b.logAction(ctx, fmt.Sprintf("opening position on %s score=%.2f", top.Symbol, top.Score))
		b.trade(ctx, top, markets[top.Symbol])
	}

	b.learnFromHistory(ctx)
}

// universe discovers the USDT perpetual universe; a discovery failure falls
// back to the configured static pairs so a transient exchange-info outage
// never idles the bot.
func (b *Bot) universe(ctx context.Context) ([]string, map[string]market.Market) {
	fallback := b.strategyCopy().FallbackPairs
	markets, err := b.gw.LoadMarkets(ctx)
	if err != nil || len(markets) == 0 {
		if err != nil {
			logger.Warnf("bot: market discovery failed, using fallback pairs: %v", err)
		} else {
			logger.Warnf("bot: no futures markets found, using fallback pairs")
		}
		return append([]string(nil), fallback...), map[string]market.Market{}
	}
	symbols := make([]string, 0, len(markets))
	for sym := range markets {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols, markets
}

func (b *Bot) trade(ctx context.Context, cand scanner.Candidate, m market.Market) {
	strat := b.strategyCopy()
	leverage := b.state.Leverage()
	if err := b.gw.SetLeverage(ctx, cand.Symbol, leverage); err != nil {
		logger.Warnf("bot: setting leverage on %s failed: %v", cand.Symbol, err)
	}

	ticker, err := b.gw.FetchTicker(ctx, cand.Symbol)
	if err != nil {
		b.logAction(ctx, fmt.Sprintf("could not quote %s for entry: %v", cand.Symbol, err))
		return
	}
	balance, err := b.gw.FetchBalance(ctx)
	if err != nil {
		b.logAction(ctx, fmt.Sprintf("could not fetch balance: %v", err))
		return
	}
	available := balance.Total * strat.BalanceHaircut

	sizer := b.currentSizer()
	fraction := sizer.Fraction(cand.Score, b.state.ManualAmount(), available)
	quantity := sizer.Quantity(available, fraction, leverage, ticker.AskPrice, m)
	if quantity <= 0 {
		b.logAction(ctx, fmt.Sprintf("allocation for %s came out empty, skipping", cand.Symbol))
		return
	}

	mgr := b.currentManager()
	pos, err := mgr.Open(ctx, cand.Symbol, quantity, leverage, ticker.AskPrice)
	if err != nil {
		b.logAction(ctx, fmt.Sprintf("could not open position for %s: %v", cand.Symbol, err))
		return
	}
	b.logAction(ctx, fmt.Sprintf("position opened for %s at %.4f", pos.Symbol, pos.EntryPrice))

	out := mgr.Monitor(ctx, pos)
	if errors.Is(out.Err, context.Canceled) {
		logger.Infof("bot: stop interrupted monitoring of %s, outcome not recorded", pos.Symbol)
		return
	}
	b.record(ctx, pos, out)
	b.logAction(ctx, fmt.Sprintf("trade for %s finished: %s pnl=%.4f", pos.Symbol, out.Kind, out.RealizedPnl))
}

func (b *Bot) record(ctx context.Context, pos *position.Position, out position.Outcome) {
	trade := model.TradeRecord{
		Symbol:       pos.Symbol,
		EntryPrice:   pos.EntryPrice,
		ExitPrice:    out.ExitPrice,
		Quantity:     pos.Quantity,
		Leverage:     pos.Leverage,
		Outcome:      string(out.Kind),
		RealizedPnl:  out.RealizedPnl,
		OrderPayload: datatypes.JSON(pos.OrderPayload),
	}
	if err := b.state.Apply(ctx, trade, out.RealizedPnl, out.ScoreDelta); err != nil {
		logger.Errorf("bot: recording trade outcome for %s failed: %v", pos.Symbol, err)
		return
	}
	if out.Kind == position.KindError {
		msg := fmt.Sprintf("prowl: position %s closed with error: %v", pos.Symbol, out.Err)
		if err := b.notifier.SendText(msg); err != nil {
			logger.Warnf("bot: notifying close error failed: %v", err)
		}
	}
}

// learnFromHistory logs the per-symbol win/loss tally, the lightweight
// report the loop runs after each trade cycle.
func (b *Bot) learnFromHistory(ctx context.Context) {
	tally, err := b.trades.OutcomeTally(ctx)
	if err != nil {
		logger.Warnf("bot: analyzing history failed: %v", err)
		return
	}
	if len(tally) == 0 {
		logger.Infof("bot: no trade data to learn from")
		return
	}
	symbols := make([]string, 0, len(tally))
	for sym := range tally {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	for _, sym := range symbols {
		logger.Infof("bot: performance %s: %v", sym, tally[sym])
	}
}

func (b *Bot) promotePending() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return
	}
	if cur, ok := b.manager.Current(); ok && !cur.State.Terminal() {
		return
	}
	b.strategy = *b.pending
	b.pending = nil
	b.rebuild()
	logger.Infof("bot: strategy tunables applied")
}

func (b *Bot) currentScanner() *scanner.Scanner {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scanner
}

func (b *Bot) currentManager() *position.Manager {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.manager
}

func (b *Bot) currentSizer() allocation.Sizer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sizer
}

func (b *Bot) strategyCopy() config.StrategyConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.strategy
}

func (b *Bot) loopInterval() time.Duration {
	return b.strategyCopy().LoopInterval()
}

func (b *Bot) logAction(ctx context.Context, message string) {
	logger.Infof("bot: %s", message)
	if b.actions == nil {
		return
	}
	if err := b.actions.LogAction(ctx, message); err != nil {
		logger.Warnf("bot: persisting action log failed: %v", err)
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
