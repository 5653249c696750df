package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPortfolioAverageCost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	p := NewPortfolio(context.Background(), path)

	if err := p.AddShares(context.Background(), "AAPL", 10, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("first buy: %v", err)
	}
	if err := p.AddShares(context.Background(), "AAPL", 10, decimal.NewFromInt(200)); err != nil {
		t.Fatalf("second buy: %v", err)
	}

	h := p.Holdings()["AAPL"]
	if h.Quantity != 20 {
		t.Errorf("quantity %d, want 20", h.Quantity)
	}
	if !h.CostBasis.Equal(decimal.NewFromInt(150)) {
		t.Errorf("avg cost %s, want 150", h.CostBasis)
	}
}

func TestPortfolioSellGuards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	p := NewPortfolio(context.Background(), path)

	if err := p.AddShares(context.Background(), "TSLA", 5, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if err := p.RemoveShares(context.Background(), "TSLA", 10); err == nil {
		t.Fatal("overselling must fail")
	}
	if h := p.Holdings()["TSLA"]; h.Quantity != 5 {
		t.Errorf("failed sell changed quantity to %d, want 5", h.Quantity)
	}

	if err := p.RemoveShares(context.Background(), "TSLA", 5); err != nil {
		t.Fatalf("sell all: %v", err)
	}
	if _, ok := p.Holdings()["TSLA"]; ok {
		t.Error("selling every share must remove the holding")
	}
}

func TestPortfolioPersistsAcrossLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")

	p := NewPortfolio(context.Background(), path)
	if err := p.AddShares(context.Background(), "MSFT", 3, decimal.RequireFromString("310.50")); err != nil {
		t.Fatalf("buy: %v", err)
	}

	reloaded := NewPortfolio(context.Background(), path)
	h, ok := reloaded.Holdings()["MSFT"]
	if !ok {
		t.Fatal("holding did not survive a reload")
	}
	if h.Quantity != 3 || !h.CostBasis.Equal(decimal.RequireFromString("310.50")) {
		t.Errorf("reloaded holding %+v, want 3 @ 310.50", h)
	}
}

func TestPortfolioCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewPortfolio(context.Background(), path)
	if len(p.Holdings()) != 0 {
		t.Error("corrupt file must yield an empty portfolio")
	}
}
