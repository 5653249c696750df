package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/types"
)

// Holding is one line of the local paper portfolio. CostBasis is the
// average cost per share.
type Holding struct {
	Quantity  int64           `json:"quantity"`
	CostBasis decimal.Decimal `json:"costBasis"`
}

// Portfolio persists simulated holdings to a JSON file. Every mutation is
// written through immediately so a crash never loses a fill.
type Portfolio struct {
	mu       sync.Mutex
	path     string
	holdings map[string]Holding
}

func NewPortfolio(ctx context.Context, path string) *Portfolio {
	p := &Portfolio{path: path, holdings: map[string]Holding{}}

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "Failed to read portfolio, starting empty", "path", path, "error", err)
		}
		return p
	}
	if err := json.Unmarshal(b, &p.holdings); err != nil {
		logger.Warn(ctx, "Portfolio file is not valid JSON, starting empty", "path", path, "error", err)
		p.holdings = map[string]Holding{}
	}
	return p
}

// Holdings returns a copy of the current holdings keyed by symbol.
func (p *Portfolio) Holdings() map[string]Holding {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Holding, len(p.holdings))
	for sym, h := range p.holdings {
		out[sym] = h
	}
	return out
}

// Positions renders the holdings as positions, sorted by symbol for stable
// display and reconciliation.
func (p *Portfolio) Positions() []types.Position {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbols := make([]string, 0, len(p.holdings))
	for sym := range p.holdings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	positions := make([]types.Position, 0, len(symbols))
	for _, sym := range symbols {
		h := p.holdings[sym]
		positions = append(positions, types.Position{
			Symbol:    sym,
			Quantity:  h.Quantity,
			CostBasis: h.CostBasis,
		})
	}
	return positions
}

// AddShares records a buy, folding the fill into the average cost.
func (p *Portfolio) AddShares(ctx context.Context, symbol string, quantity int64, price decimal.Decimal) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid buy quantity %d for %s", quantity, symbol)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.holdings[symbol]
	oldTotal := h.CostBasis.Mul(decimal.NewFromInt(h.Quantity))
	fillTotal := price.Mul(decimal.NewFromInt(quantity))
	h.Quantity += quantity
	h.CostBasis = oldTotal.Add(fillTotal).Div(decimal.NewFromInt(h.Quantity))
	p.holdings[symbol] = h

	if err := p.save(); err != nil {
		return err
	}
	logger.Info(ctx, "Updated holding",
		"symbol", symbol, "quantity", h.Quantity, "avg_cost", h.CostBasis.StringFixed(2))
	return nil
}

// RemoveShares records a sell. The average cost per share is unchanged by a
// partial sale; selling the last share removes the line entirely. Selling
// more than is held is an error and leaves the portfolio untouched.
func (p *Portfolio) RemoveShares(ctx context.Context, symbol string, quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("invalid sell quantity %d for %s", quantity, symbol)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	h, ok := p.holdings[symbol]
	if !ok || h.Quantity < quantity {
		return fmt.Errorf("cannot sell %d shares of %s: only %d held", quantity, symbol, h.Quantity)
	}

	h.Quantity -= quantity
	if h.Quantity == 0 {
		delete(p.holdings, symbol)
		if err := p.save(); err != nil {
			return err
		}
		logger.Info(ctx, "Removed holding", "symbol", symbol)
		return nil
	}
	p.holdings[symbol] = h

	if err := p.save(); err != nil {
		return err
	}
	logger.Info(ctx, "Updated holding",
		"symbol", symbol, "quantity", h.Quantity, "avg_cost", h.CostBasis.StringFixed(2))
	return nil
}

func (p *Portfolio) save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create portfolio dir: %w", err)
	}
	b, err := json.MarshalIndent(p.holdings, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, b, 0o600); err != nil {
		return fmt.Errorf("write portfolio: %w", err)
	}
	return nil
}
