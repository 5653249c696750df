package llmobs

import (
	"context"

	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/trace"
	"etrade-assistant/internal/types"
)

// observableRecommender wraps a Recommender with observability (logging & tracing)
type observableRecommender struct {
	recommender interfaces.Recommender
}

// Compile-time interface check
var _ interfaces.Recommender = (*observableRecommender)(nil)

// Wrap wraps a recommender with observability middleware
func Wrap(recommender interfaces.Recommender) interfaces.Recommender {
	return &observableRecommender{
		recommender: recommender,
	}
}

// Recommend generates a recommendation with observability
func (or *observableRecommender) Recommend(ctx context.Context, input types.AnalysisInput) (types.Recommendation, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Recommend")
	defer span.End()

	// Use DebugSkip(1) to report the actual caller, not this middleware wrapper
	logger.DebugSkip(ctx, 1, "Requesting recommendation",
		"ticker", input.Ticker,
		"risk_profile", input.RiskProfile,
	)

	rec, err := or.recommender.Recommend(ctx, input)
	if err != nil {
		// Use ErrorWithErrSkip(1) to report the actual caller
		logger.ErrorWithErrSkip(ctx, 1, "Failed to generate recommendation", err,
			"ticker", input.Ticker,
		)
		return types.Recommendation{}, err
	}

	// Log the result - use InfoSkip(1) to report the actual caller
	logger.InfoSkip(ctx, 1, "Recommendation received",
		"ticker", rec.Ticker,
		"action", rec.Action,
		"confidence", rec.Confidence,
		"risk_level", rec.RiskLevel,
		"time_horizon", rec.TimeHorizon,
	)

	return rec, nil
}
