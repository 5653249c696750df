package interfaces

import (
	"context"

	"etrade-assistant/internal/types"
)

// Recommender turns market data plus the user's risk profile into a
// structured trade recommendation.
type Recommender interface {
	Recommend(ctx context.Context, input types.AnalysisInput) (types.Recommendation, error)
}
