package exchange

import (
	"context"
	"errors"

	"prowl/internal/market"
)

// ErrInsufficientHistory marks a symbol whose candle series is too short for
// the indicators. Scans skip the symbol, they never fail on it.
var ErrInsufficientHistory = errors.New("insufficient candle history")

// ErrInvalidTicker marks a ticker with a non-positive price or volume.
var ErrInvalidTicker = errors.New("invalid ticker data")

// Order is the fill information returned by a market order.
type Order struct {
	ID       string  `json:"id"`
	Symbol   string  `json:"symbol"`
	Side     string  `json:"side"`
	Quantity float64 `json:"quantity"`
	AvgPrice float64 `json:"avg_price"`
	Raw      []byte  `json:"-"`
}

// Balance is the available quote balance of the futures account.
type Balance struct {
	Asset     string  `json:"asset"`
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
}

// Gateway is the narrow exchange surface the bot consumes. All calls may
// fail transiently; callers treat failures as retryable unless noted.
type Gateway interface {
	// LoadMarkets returns the tradable USDT perpetual instruments.
	LoadMarkets(ctx context.Context) (map[string]market.Market, error)

	// FetchTickers returns a snapshot for every requested symbol in one
	// batched call. Symbols without data are absent from the result.
	FetchTickers(ctx context.Context, symbols []string) (map[string]market.Ticker, error)

	// FetchTicker returns a snapshot for one symbol.
	FetchTicker(ctx context.Context, symbol string) (market.Ticker, error)

	// FetchOHLCV returns up to limit candles for symbol at timeframe,
	// oldest first.
	FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error)

	// CreateMarketBuyOrder places a market buy for quantity contracts.
	CreateMarketBuyOrder(ctx context.Context, symbol string, quantity float64) (Order, error)

	// CreateMarketSellOrder places a market sell for quantity contracts.
	CreateMarketSellOrder(ctx context.Context, symbol string, quantity float64) (Order, error)

	// FetchBalance returns the USDT futures balance.
	FetchBalance(ctx context.Context) (Balance, error)

	// SetLeverage applies leverage to the given symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}
