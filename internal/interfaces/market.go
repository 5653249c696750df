package interfaces

import (
	"context"

	"etrade-assistant/internal/types"
)

// MarketData reads quotes, history and news through an authenticated
// brokerage session.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (*types.Quote, error)
	History(ctx context.Context, symbol, interval, period string) ([]types.Candle, error)
	News(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error)
}
