package etrade

import (
	"context"
	"fmt"

	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/trace"
	"etrade-assistant/internal/types"
)

// MarketClient reads quotes, history and news through the session facade.
// Every call goes through GetSession, so an expired token renews (or
// re-authenticates) before the request is signed.
type MarketClient struct {
	sessions *SessionFacade
}

var _ interfaces.MarketData = (*MarketClient)(nil)

func NewMarketClient(sessions *SessionFacade) *MarketClient {
	return &MarketClient{sessions: sessions}
}

type quoteResponse struct {
	QuoteResponse struct {
		QuoteData []struct {
			Product struct {
				Symbol string `json:"symbol"`
			} `json:"product"`
			All struct {
				LastTrade             float64 `json:"lastTrade"`
				ChangeClosePercentage float64 `json:"changeClosePercentage"`
				TotalVolume           int64   `json:"totalVolume"`
				Bid                   float64 `json:"bid"`
				Ask                   float64 `json:"ask"`
				High                  float64 `json:"high"`
				Low                   float64 `json:"low"`
				Open                  float64 `json:"open"`
				PreviousClose         float64 `json:"previousClose"`
			} `json:"All"`
		} `json:"QuoteData"`
	} `json:"QuoteResponse"`
}

func (m *MarketClient) Quote(ctx context.Context, symbol string) (*types.Quote, error) {
	ctx, span := trace.StartSpan(ctx, "market.Quote")
	defer span.End()

	session, err := m.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	var out quoteResponse
	resp, err := session.Rest().R().
		SetContext(ctx).
		SetQueryParam("detailFlag", "ALL").
		SetResult(&out).
		Get("/market/quote/" + symbol + ".json")
	if err != nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("quote %s: http %d", symbol, resp.StatusCode())
	}

	data := out.QuoteResponse.QuoteData
	if len(data) == 0 {
		return nil, fmt.Errorf("quote %s: empty response", symbol)
	}
	q := data[0]
	return &types.Quote{
		Symbol:        q.Product.Symbol,
		LastPrice:     q.All.LastTrade,
		ChangePct:     q.All.ChangeClosePercentage,
		Volume:        q.All.TotalVolume,
		Bid:           q.All.Bid,
		Ask:           q.All.Ask,
		High:          q.All.High,
		Low:           q.All.Low,
		Open:          q.All.Open,
		PreviousClose: q.All.PreviousClose,
	}, nil
}

type historyResponse struct {
	IntradayCandleResponse struct {
		Candle []struct {
			DateTime int64   `json:"dateTime"`
			Open     float64 `json:"open"`
			High     float64 `json:"high"`
			Low      float64 `json:"low"`
			Close    float64 `json:"close"`
			Volume   int64   `json:"volume"`
		} `json:"Candle"`
	} `json:"IntradayCandleResponse"`
	HistoricalQuoteResponse struct {
		QuoteData []struct {
			DateTime int64   `json:"dateTime"`
			Open     float64 `json:"open"`
			High     float64 `json:"high"`
			Low      float64 `json:"low"`
			Close    float64 `json:"close"`
			Volume   int64   `json:"totalVolume"`
		} `json:"QuoteData"`
	} `json:"HistoricalQuoteResponse"`
}

// History fetches historical candles. Short intervals come back in the
// intraday shape, longer periods in the historical-quote shape; both map to
// the same candle type.
func (m *MarketClient) History(ctx context.Context, symbol, interval, period string) ([]types.Candle, error) {
	ctx, span := trace.StartSpan(ctx, "market.History")
	defer span.End()

	session, err := m.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	var out historyResponse
	resp, err := session.Rest().R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"interval": interval,
			"period":   period,
		}).
		SetResult(&out).
		Get("/market/history/" + symbol + ".json")
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("history %s: http %d", symbol, resp.StatusCode())
	}

	if candles := out.IntradayCandleResponse.Candle; len(candles) > 0 {
		result := make([]types.Candle, 0, len(candles))
		for _, c := range candles {
			result = append(result, types.Candle{
				Ts: c.DateTime, Open: c.Open, High: c.High,
				Low: c.Low, Close: c.Close, Vol: c.Volume,
			})
		}
		return result, nil
	}

	quotes := out.HistoricalQuoteResponse.QuoteData
	result := make([]types.Candle, 0, len(quotes))
	for _, q := range quotes {
		result = append(result, types.Candle{
			Ts: q.DateTime, Open: q.Open, High: q.High,
			Low: q.Low, Close: q.Close, Vol: q.Volume,
		})
	}
	return result, nil
}

type newsResponse struct {
	NewsResponse struct {
		News []struct {
			Headline string `json:"headline"`
			Source   string `json:"source"`
			URL      string `json:"url"`
		} `json:"News"`
	} `json:"NewsResponse"`
}

func (m *MarketClient) News(ctx context.Context, symbol string, limit int) ([]types.NewsItem, error) {
	ctx, span := trace.StartSpan(ctx, "market.News")
	defer span.End()

	session, err := m.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	var out newsResponse
	resp, err := session.Rest().R().
		SetContext(ctx).
		SetQueryParam("symbols", symbol).
		SetResult(&out).
		Get("/market/news.json")
	if err != nil {
		return nil, fmt.Errorf("news %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news %s: http %d", symbol, resp.StatusCode())
	}

	items := make([]types.NewsItem, 0, limit)
	for _, n := range out.NewsResponse.News {
		if n.Headline == "" {
			continue
		}
		items = append(items, types.NewsItem{Headline: n.Headline, Source: n.Source, URL: n.URL})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}
