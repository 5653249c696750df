package noop

import (
	"context"

	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/types"
)

// NoopRecommender is the fallback used when no model backend is available.
type NoopRecommender struct{}

// NewRecommender returns an instance that always recommends HOLD.
func NewRecommender() *NoopRecommender {
	return &NoopRecommender{}
}

// Recommend implements the Recommender interface. It always returns HOLD
// with zero confidence.
func (r *NoopRecommender) Recommend(ctx context.Context, input types.AnalysisInput) (types.Recommendation, error) {
	logger.Debug(ctx, "Noop recommender called - always returns HOLD", "ticker", input.Ticker)
	return types.Recommendation{
		Ticker:      input.Ticker,
		Confidence:  0,
		RiskLevel:   string(types.RiskLow),
		Action:      "HOLD",
		TimeHorizon: "N/A",
		Reasoning:   "No model backend available.",
	}, nil
}
