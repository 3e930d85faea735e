package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"prowl/internal/gateway/exchange"
	"prowl/internal/market"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"
)

const maxKlineLimit = 1500

// Gateway implements exchange.Gateway on top of the go-binance futures SDK.
type Gateway struct {
	cfg    Config
	client *futures.Client
}

var _ exchange.Gateway = (*Gateway)(nil)

func New(cfg Config) *Gateway {
	final := cfg.withDefaults()
	client := futures.NewClient(final.APIKey, final.APISecret)
	client.BaseURL = final.RESTBaseURL
	client.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}
	return &Gateway{cfg: final, client: client}
}

// LoadMarkets returns every trading USDT perpetual with its lot-size limits.
func (g *Gateway) LoadMarkets(ctx context.Context) (map[string]market.Market, error) {
	info, err := g.client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange info: %w", err)
	}
	out := make(map[string]market.Market)
	for _, sym := range info.Symbols {
		if sym.Status != "TRADING" || sym.QuoteAsset != "USDT" || sym.ContractType != "PERPETUAL" {
			continue
		}
		m := market.Market{Symbol: sym.Symbol}
		if lot := sym.LotSizeFilter(); lot != nil {
			m.MinQuantity = parseFloat(lot.MinQuantity)
			m.MaxQuantity = parseFloat(lot.MaxQuantity)
			m.StepSize = parseFloat(lot.StepSize)
		}
		out[sym.Symbol] = m
	}
	return out, nil
}

// FetchTickers snapshots all requested symbols from a single 24h-stats call.
func (g *Gateway) FetchTickers(ctx context.Context, symbols []string) (map[string]market.Ticker, error) {
	stats, err := g.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("ticker batch: %w", err)
	}
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[strings.ToUpper(strings.TrimSpace(s))] = true
	}
	out := make(map[string]market.Ticker, len(symbols))
	for _, st := range stats {
		if st == nil || !wanted[st.Symbol] {
			continue
		}
		out[st.Symbol] = market.Ticker{
			Symbol:      st.Symbol,
			LastPrice:   parseFloat(st.LastPrice),
			QuoteVolume: parseFloat(st.QuoteVolume),
		}
	}
	return out, nil
}

// FetchTicker snapshots one symbol, including the best ask for entry pricing.
func (g *Gateway) FetchTicker(ctx context.Context, symbol string) (market.Ticker, error) {
	stats, err := g.client.NewListPriceChangeStatsService().Symbol(symbol).Do(ctx)
	if err != nil {
		return market.Ticker{}, fmt.Errorf("ticker %s: %w", symbol, err)
	}
	if len(stats) == 0 || stats[0] == nil {
		return market.Ticker{}, fmt.Errorf("ticker %s: %w", symbol, exchange.ErrInvalidTicker)
	}
	t := market.Ticker{
		Symbol:      symbol,
		LastPrice:   parseFloat(stats[0].LastPrice),
		QuoteVolume: parseFloat(stats[0].QuoteVolume),
	}
	books, err := g.client.NewListBookTickersService().Symbol(symbol).Do(ctx)
	if err == nil && len(books) > 0 && books[0] != nil {
		t.AskPrice = parseFloat(books[0].AskPrice)
	}
	if t.AskPrice <= 0 {
		t.AskPrice = t.LastPrice
	}
	return t, nil
}

func (g *Gateway) FetchOHLCV(ctx context.Context, symbol, timeframe string, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > maxKlineLimit {
		limit = maxKlineLimit
	}
	timeframe = strings.ToLower(strings.TrimSpace(timeframe))
	if timeframe == "" {
		return nil, fmt.Errorf("timeframe is required")
	}
	kls, err := g.client.NewKlinesService().Symbol(symbol).Interval(timeframe).Limit(limit).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("klines %s: %w", symbol, err)
	}
	out := make([]market.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  kl.OpenTime,
			CloseTime: kl.CloseTime,
			Open:      parseFloat(kl.Open),
			High:      parseFloat(kl.High),
			Low:       parseFloat(kl.Low),
			Close:     parseFloat(kl.Close),
			Volume:    parseFloat(kl.Volume),
		})
	}
	return out, nil
}

func (g *Gateway) CreateMarketBuyOrder(ctx context.Context, symbol string, quantity float64) (exchange.Order, error) {
	return g.createMarketOrder(ctx, symbol, futures.SideTypeBuy, quantity)
}

func (g *Gateway) CreateMarketSellOrder(ctx context.Context, symbol string, quantity float64) (exchange.Order, error) {
	return g.createMarketOrder(ctx, symbol, futures.SideTypeSell, quantity)
}

func (g *Gateway) createMarketOrder(ctx context.Context, symbol string, side futures.SideType, quantity float64) (exchange.Order, error) {
	if quantity <= 0 {
		return exchange.Order{}, fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	resp, err := g.client.NewCreateOrderService().
		Symbol(symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(formatQuantity(quantity)).
		NewOrderResponseType(futures.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return exchange.Order{}, fmt.Errorf("%s %s: %w", strings.ToLower(string(side)), symbol, err)
	}
	raw, _ := json.Marshal(resp)
	return exchange.Order{
		ID:       strconv.FormatInt(resp.OrderID, 10),
		Symbol:   resp.Symbol,
		Side:     string(side),
		Quantity: parseFloat(resp.ExecutedQuantity),
		AvgPrice: parseFloat(resp.AvgPrice),
		Raw:      raw,
	}, nil
}

func (g *Gateway) FetchBalance(ctx context.Context) (exchange.Balance, error) {
	balances, err := g.client.NewGetBalanceService().Do(ctx)
	if err != nil {
		return exchange.Balance{}, fmt.Errorf("balance: %w", err)
	}
	for _, b := range balances {
		if b != nil && b.Asset == "USDT" {
			return exchange.Balance{
				Asset:     b.Asset,
				Total:     parseFloat(b.Balance),
				Available: parseFloat(b.AvailableBalance),
			}, nil
		}
	}
	return exchange.Balance{Asset: "USDT"}, nil
}

func (g *Gateway) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := g.client.NewChangeLeverageService().Symbol(symbol).Leverage(leverage).Do(ctx)
	if err != nil {
		return fmt.Errorf("set leverage %s=%d: %w", symbol, leverage, err)
	}
	return nil
}

func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).String()
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
