package sim

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/store"
	"etrade-assistant/internal/trace"
	"etrade-assistant/internal/types"
)

// Simulator executes paper trades against the local portfolio. It never
// touches the brokerage order endpoints; market data is only consulted to
// price fills realistically.
type Simulator struct {
	portfolio    *store.Portfolio
	market       interfaces.MarketData // may be nil; fills then use the default price
	defaultPrice decimal.Decimal
}

type Params struct {
	Portfolio    *store.Portfolio
	Market       interfaces.MarketData
	DefaultPrice float64
}

func NewSimulator(p Params) *Simulator {
	price := p.DefaultPrice
	if price <= 0 {
		price = 100.00
	}
	return &Simulator{
		portfolio:    p.Portfolio,
		market:       p.Market,
		defaultPrice: decimal.NewFromFloat(price),
	}
}

// Execute fills a simulated BUY or SELL and updates the local portfolio.
// Sells are rejected when the portfolio holds fewer shares than requested.
func (s *Simulator) Execute(ctx context.Context, symbol, action string, quantity int64) (*types.SimulatedTrade, error) {
	ctx, span := trace.StartSpan(ctx, "sim.Execute")
	defer span.End()

	if quantity <= 0 {
		return nil, fmt.Errorf("invalid trade quantity %d", quantity)
	}

	price := s.fillPrice(ctx, symbol)
	action = strings.ToUpper(action)

	switch action {
	case "BUY":
		if err := s.portfolio.AddShares(ctx, symbol, quantity, price); err != nil {
			return nil, err
		}
	case "SELL":
		if err := s.portfolio.RemoveShares(ctx, symbol, quantity); err != nil {
			logger.Warn(ctx, "SIMULATION - sell rejected", "symbol", symbol, "quantity", quantity, "error", err)
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid trade action %q", action)
	}

	logger.Info(ctx, "SIMULATION - NO REAL MONEY USED",
		"action", action, "symbol", symbol, "quantity", quantity, "price", price.StringFixed(2))

	return &types.SimulatedTrade{
		Symbol:   symbol,
		Action:   action,
		Quantity: quantity,
		Price:    price,
	}, nil
}

// fillPrice uses the last trade when a quote is reachable, otherwise the
// configured nominal price.
func (s *Simulator) fillPrice(ctx context.Context, symbol string) decimal.Decimal {
	if s.market == nil {
		return s.defaultPrice
	}
	quote, err := s.market.Quote(ctx, symbol)
	if err != nil || quote == nil || quote.LastPrice <= 0 {
		logger.Debug(ctx, "No live quote for simulated fill, using default price",
			"symbol", symbol, "default", s.defaultPrice.StringFixed(2))
		return s.defaultPrice
	}
	return decimal.NewFromFloat(quote.LastPrice)
}

// Positions returns the simulated portfolio as positions.
func (s *Simulator) Positions() []types.Position {
	return s.portfolio.Positions()
}

// Reconcile compares the local paper portfolio against live brokerage
// positions and reports every symbol whose quantities drift. Symbols held
// on only one side appear with a zero quantity on the other.
func Reconcile(local, live []types.Position) []types.Drift {
	localQty := make(map[string]int64, len(local))
	for _, p := range local {
		localQty[p.Symbol] += p.Quantity
	}
	liveQty := make(map[string]int64, len(live))
	for _, p := range live {
		liveQty[p.Symbol] += p.Quantity
	}

	symbols := make(map[string]struct{}, len(localQty)+len(liveQty))
	for sym := range localQty {
		symbols[sym] = struct{}{}
	}
	for sym := range liveQty {
		symbols[sym] = struct{}{}
	}

	var drifts []types.Drift
	for sym := range symbols {
		if localQty[sym] == liveQty[sym] {
			continue
		}
		drifts = append(drifts, types.Drift{
			Symbol:   sym,
			LocalQty: localQty[sym],
			LiveQty:  liveQty[sym],
		})
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].Symbol < drifts[j].Symbol })
	return drifts
}
