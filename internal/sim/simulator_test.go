package sim

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"etrade-assistant/internal/store"
	"etrade-assistant/internal/types"
)

type quoteStub struct {
	price float64
	err   error
}

func (q *quoteStub) Quote(ctx context.Context, symbol string) (*types.Quote, error) {
	if q.err != nil {
		return nil, q.err
	}
	return &types.Quote{Symbol: symbol, LastPrice: q.price}, nil
}

func (q *quoteStub) History(ctx context.Context, symbol, interval, period string) ([]types.Candle, error) {
	return nil, errors.New("not implemented")
}

func (q *quoteStub) News(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	return nil, errors.New("not implemented")
}

func newTestSimulator(t *testing.T, market *quoteStub) *Simulator {
	t.Helper()
	portfolio := store.NewPortfolio(context.Background(), filepath.Join(t.TempDir(), "portfolio.json"))
	params := Params{Portfolio: portfolio, DefaultPrice: 100.00}
	if market != nil {
		params.Market = market
	}
	return NewSimulator(params)
}

func TestExecuteBuyUsesLiveQuote(t *testing.T) {
	simulator := newTestSimulator(t, &quoteStub{price: 42.50})

	trade, err := simulator.Execute(context.Background(), "AAPL", "BUY", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !trade.Price.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("fill price %s, want the live quote 42.5", trade.Price)
	}

	positions := simulator.Positions()
	if len(positions) != 1 || positions[0].Quantity != 10 {
		t.Errorf("positions after buy: %+v", positions)
	}
}

func TestExecuteBuyFallsBackToDefaultPrice(t *testing.T) {
	simulator := newTestSimulator(t, &quoteStub{err: errors.New("quote down")})

	trade, err := simulator.Execute(context.Background(), "AAPL", "BUY", 1)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !trade.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("fill price %s, want the default 100", trade.Price)
	}
}

func TestExecuteSellGuard(t *testing.T) {
	simulator := newTestSimulator(t, nil)

	if _, err := simulator.Execute(context.Background(), "TSLA", "SELL", 5); err == nil {
		t.Fatal("selling shares that are not held must fail")
	}

	if _, err := simulator.Execute(context.Background(), "TSLA", "BUY", 5); err != nil {
		t.Fatalf("buy: %v", err)
	}
	if _, err := simulator.Execute(context.Background(), "TSLA", "SELL", 5); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if positions := simulator.Positions(); len(positions) != 0 {
		t.Errorf("portfolio should be flat after selling out, got %+v", positions)
	}
}

func TestExecuteRejectsInvalidInput(t *testing.T) {
	simulator := newTestSimulator(t, nil)

	if _, err := simulator.Execute(context.Background(), "AAPL", "SHORT", 1); err == nil {
		t.Error("unknown action must fail")
	}
	if _, err := simulator.Execute(context.Background(), "AAPL", "BUY", 0); err == nil {
		t.Error("zero quantity must fail")
	}
}

func TestReconcile(t *testing.T) {
	local := []types.Position{
		{Symbol: "AAPL", Quantity: 10},
		{Symbol: "MSFT", Quantity: 5},
		{Symbol: "NVDA", Quantity: 3},
	}
	live := []types.Position{
		{Symbol: "AAPL", Quantity: 10}, // in sync
		{Symbol: "MSFT", Quantity: 8},  // drifted
		{Symbol: "TSLA", Quantity: 2},  // live only
	}

	drifts := Reconcile(local, live)
	if len(drifts) != 3 {
		t.Fatalf("got %d drifts, want 3: %+v", len(drifts), drifts)
	}

	// Sorted by symbol: MSFT, NVDA, TSLA.
	if drifts[0].Symbol != "MSFT" || drifts[0].Delta() != -3 {
		t.Errorf("MSFT drift wrong: %+v", drifts[0])
	}
	if drifts[1].Symbol != "NVDA" || drifts[1].LiveQty != 0 {
		t.Errorf("NVDA drift wrong: %+v", drifts[1])
	}
	if drifts[2].Symbol != "TSLA" || drifts[2].LocalQty != 0 {
		t.Errorf("TSLA drift wrong: %+v", drifts[2])
	}
}

func TestReconcileInSync(t *testing.T) {
	positions := []types.Position{{Symbol: "AAPL", Quantity: 1}}
	if drifts := Reconcile(positions, positions); len(drifts) != 0 {
		t.Errorf("in-sync portfolios must report no drift, got %+v", drifts)
	}
}
