package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"prowl/internal/account"
	"prowl/internal/bot"
	"prowl/internal/config"
	"prowl/internal/gateway/binance"
	"prowl/internal/gateway/notifier"
	"prowl/internal/logger"
	"prowl/internal/scheduler"
	"prowl/internal/store/actionlog"
	"prowl/internal/store/sqlite"
	transporthttp "prowl/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	cfg      *config.Config
	cfgPath  string
	trading  *sqlite.Store
	audit    *actionlog.Store
	state    *account.State
	bot      *bot.Bot
	reporter *bot.Reporter
	server   *transporthttp.Server
}

// New builds the full component graph from the loaded configuration.
func New(cfg *config.Config, cfgPath string) (*App, error) {
	for _, p := range []string{cfg.Store.TradingDB, cfg.Store.ActionLogDB} {
		if dir := filepath.Dir(p); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating data directory %s failed: %w", dir, err)
			}
		}
	}

	trading, err := sqlite.New(cfg.Store.TradingDB)
	if err != nil {
		return nil, fmt.Errorf("opening trading store failed: %w", err)
	}
	audit, err := actionlog.New(cfg.Store.ActionLogDB)
	if err != nil {
		trading.Close()
		return nil, fmt.Errorf("opening action log failed: %w", err)
	}

	state, err := account.NewState(trading, trading)
	if err != nil {
		trading.Close()
		audit.Close()
		return nil, fmt.Errorf("seeding account state failed: %w", err)
	}

	gw := binance.New(binance.Config{
		APIKey:      cfg.Exchange.APIKey,
		APISecret:   cfg.Exchange.APISecret,
		RESTBaseURL: cfg.Exchange.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Exchange.HTTPTimeoutSeconds) * time.Second,
	})

	var notif notifier.TextNotifier = notifier.Noop{}
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != "" {
		notif = notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	} else {
		logger.Warnf("telegram credentials missing, notifications disabled")
	}

	b := bot.New(gw, state, trading, audit, audit, notif, cfg.Strategy)

	router := &transporthttp.Router{
		Bot:      b,
		State:    state,
		Config:   trading,
		Trades:   trading,
		Audit:    audit,
		Notifier: notif,
	}

	return &App{
		cfg:      cfg,
		cfgPath:  cfgPath,
		trading:  trading,
		audit:    audit,
		state:    state,
		bot:      b,
		reporter: &bot.Reporter{State: state, Notifier: notif, Actions: audit},
		server:   transporthttp.NewServer(cfg.App.HTTPAddr, router),
	}, nil
}

// Run starts the trading loop, HTTP API and daily reporter, and blocks
// until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	if err := config.Watch(a.cfgPath, a.bot.ApplyStrategy); err != nil {
		logger.Warnf("config watch disabled: %v", err)
	}

	if err := a.bot.Start(ctx); err != nil {
		return fmt.Errorf("starting trading loop failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.server.Start(gctx)
	})
	g.Go(func() error {
		daily := scheduler.NewDaily(a.state.ReportTime())
		daily.Start(gctx, func() { a.reporter.Send(gctx) })
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.bot.Stop()
		return nil
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	if err := a.audit.Close(); err != nil {
		logger.Warnf("closing action log: %v", err)
	}
	if err := a.trading.Close(); err != nil {
		logger.Warnf("closing trading store: %v", err)
	}
}
