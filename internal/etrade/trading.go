package etrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/trace"
	"etrade-assistant/internal/types"
)

// TradeClient places live orders and reads live portfolio state. Orders go
// through the provider's preview step first; the preview response is echoed
// back in the place request as the provider requires.
type TradeClient struct {
	sessions *SessionFacade
}

func NewTradeClient(sessions *SessionFacade) *TradeClient {
	return &TradeClient{sessions: sessions}
}

type previewOrderResponse struct {
	PreviewOrderResponse struct {
		ClientOrderID string            `json:"clientOrderId"`
		Order         []json.RawMessage `json:"Order"`
		PreviewIDs    []struct {
			PreviewID int64 `json:"previewId"`
		} `json:"PreviewIds"`
	} `json:"PreviewOrderResponse"`
}

type placeOrderResponse struct {
	PlaceOrderResponse struct {
		OrderIDs []struct {
			OrderID int64 `json:"orderId"`
		} `json:"OrderIds"`
	} `json:"PlaceOrderResponse"`
}

func orderPayload(req types.OrderReq, clientOrderID string) map[string]any {
	priceType := strings.ToUpper(req.PriceType)
	if priceType == "" {
		priceType = "MARKET"
	}
	order := map[string]any{
		"allOrNone":     false,
		"priceType":     priceType,
		"orderTerm":     "GOOD_FOR_DAY",
		"marketSession": "REGULAR",
		"Instrument": []map[string]any{{
			"Product": map[string]any{
				"securityType": "EQ",
				"symbol":       req.Symbol,
			},
			"orderAction":  strings.ToUpper(req.Action),
			"quantityType": "QUANTITY",
			"quantity":     req.Quantity,
		}},
	}
	body := map[string]any{
		"orderType": "EQ",
		"Order":     []map[string]any{order},
	}
	if clientOrderID != "" {
		body["clientOrderId"] = clientOrderID
	}
	return map[string]any{"PreviewOrderRequest": body}
}

// PlaceEquityOrder previews and then places an equity order. Both steps must
// succeed; a preview failure aborts before anything is committed.
func (t *TradeClient) PlaceEquityOrder(ctx context.Context, req types.OrderReq) (*types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "trading.PlaceEquityOrder")
	defer span.End()

	if req.AccountID == "" {
		return nil, errors.New("account id is required to place an order")
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("invalid order quantity %d", req.Quantity)
	}
	action := strings.ToUpper(req.Action)
	if action != "BUY" && action != "SELL" {
		return nil, fmt.Errorf("invalid order action %q", req.Action)
	}

	session, err := t.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Previewing order",
		"account_id", req.AccountID, "symbol", req.Symbol,
		"action", action, "qty", req.Quantity)

	var preview previewOrderResponse
	resp, err := session.Rest().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(orderPayload(req, "")).
		SetResult(&preview).
		Post("/accounts/" + req.AccountID + "/orders/preview.json")
	if err != nil {
		return nil, fmt.Errorf("preview order %s: %w", req.Symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("preview order %s: http %d", req.Symbol, resp.StatusCode())
	}

	pr := preview.PreviewOrderResponse
	if len(pr.Order) == 0 || len(pr.PreviewIDs) == 0 {
		return nil, fmt.Errorf("preview order %s: provider returned no preview", req.Symbol)
	}

	placeBody := map[string]any{
		"PlaceOrderRequest": map[string]any{
			"orderType":     "EQ",
			"Order":         pr.Order,
			"clientOrderId": pr.ClientOrderID,
			"PreviewIds":    pr.PreviewIDs,
		},
	}

	var placed placeOrderResponse
	resp, err = session.Rest().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(placeBody).
		SetResult(&placed).
		Post("/accounts/" + req.AccountID + "/orders/place.json")
	if err != nil {
		return nil, fmt.Errorf("place order %s: %w", req.Symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("place order %s: http %d", req.Symbol, resp.StatusCode())
	}

	result := &types.OrderResult{Status: "PLACED"}
	if ids := placed.PlaceOrderResponse.OrderIDs; len(ids) > 0 {
		result.OrderID = strconv.FormatInt(ids[0].OrderID, 10)
	}
	logger.Info(ctx, "Order placed",
		"symbol", req.Symbol, "order_id", result.OrderID)
	return result, nil
}

type portfolioResponse struct {
	PortfolioResponse struct {
		AccountPortfolio []struct {
			Position []struct {
				Product struct {
					Symbol string `json:"symbol"`
				} `json:"Product"`
				Quantity    int64   `json:"quantity"`
				CostBasis   float64 `json:"costBasis"`
				MarketValue float64 `json:"marketValue"`
			} `json:"Position"`
		} `json:"AccountPortfolio"`
	} `json:"PortfolioResponse"`
}

// Portfolio fetches live positions for the account.
func (t *TradeClient) Portfolio(ctx context.Context, accountID string) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "trading.Portfolio")
	defer span.End()

	if accountID == "" {
		return nil, errors.New("account id is required to fetch the portfolio")
	}

	session, err := t.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	var out portfolioResponse
	resp, err := session.Rest().R().
		SetContext(ctx).
		SetResult(&out).
		Get("/accounts/" + accountID + "/portfolio.json")
	if err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", accountID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("portfolio %s: http %d", accountID, resp.StatusCode())
	}

	var positions []types.Position
	for _, ap := range out.PortfolioResponse.AccountPortfolio {
		for _, p := range ap.Position {
			positions = append(positions, types.Position{
				Symbol:      p.Product.Symbol,
				Quantity:    p.Quantity,
				CostBasis:   decimal.NewFromFloat(p.CostBasis),
				MarketValue: decimal.NewFromFloat(p.MarketValue),
			})
		}
	}
	return positions, nil
}
