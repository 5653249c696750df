package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/types"
)

// ParseRecommendation extracts a structured recommendation from the model's
// raw text. The format is line-oriented "Key: value"; unknown lines are
// ignored and missing fields are backfilled with "N/A" so downstream display
// never sees a half-empty struct. A malformed or garbage response therefore
// degrades to a HOLD rather than an error.
func ParseRecommendation(ctx context.Context, raw string) types.Recommendation {
	rec := types.Recommendation{
		Ticker:      "N/A",
		RiskLevel:   "N/A",
		Action:      "HOLD",
		TimeHorizon: "N/A",
		Reasoning:   "N/A",
	}

	for _, line := range strings.Split(raw, "\n") {
		key, value, found := strings.Cut(line, ": ")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch normalizeKey(key) {
		case "ticker":
			rec.Ticker = value
		case "confidence":
			n, err := strconv.Atoi(strings.Trim(value, "% "))
			if err != nil {
				logger.Debug(ctx, "Unparseable confidence value", "value", value)
				continue
			}
			if n < 0 {
				n = 0
			}
			if n > 100 {
				n = 100
			}
			rec.Confidence = n
		case "risklevel":
			rec.RiskLevel = canonicalRiskLevel(value)
		case "suggestedaction", "action":
			rec.Action = canonicalAction(value)
		case "expectedtimehorizon", "timehorizon":
			rec.TimeHorizon = value
		case "reasoningsummary", "reasoning":
			rec.Reasoning = value
		}
	}

	return rec
}

func normalizeKey(key string) string {
	key = strings.ReplaceAll(key, "-", " ")
	key = strings.ReplaceAll(key, "*", "")
	key = strings.ReplaceAll(key, " ", "")
	return strings.ToLower(strings.TrimSpace(key))
}

func canonicalAction(value string) string {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "BUY":
		return "BUY"
	case "SELL":
		return "SELL"
	default:
		return "HOLD"
	}
}

func canonicalRiskLevel(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "low":
		return string(types.RiskLow)
	case "medium":
		return string(types.RiskMedium)
	case "high":
		return string(types.RiskHigh)
	}
	return value
}

// EnforceRiskProfile downgrades a recommendation whose risk level exceeds
// the user's ceiling to HOLD. The model is asked to do this itself, but the
// gate is applied here again so a non-compliant response can never surface
// an over-risk BUY or SELL. Returns true when the recommendation was
// downgraded.
func EnforceRiskProfile(ctx context.Context, rec *types.Recommendation, profile types.RiskProfile) bool {
	if rec.Action == "HOLD" {
		return false
	}
	if types.RiskProfile(rec.RiskLevel).Rank() <= profile.Rank() {
		return false
	}

	logger.Info(ctx, "Downgrading recommendation above the user's risk ceiling",
		"ticker", rec.Ticker, "risk_level", rec.RiskLevel, "profile", profile, "action", rec.Action)
	rec.Action = "HOLD"
	rec.Reasoning = fmt.Sprintf("Recommendation risk level (%s) exceeds the configured risk profile (%s). %s",
		rec.RiskLevel, profile, rec.Reasoning)
	return true
}
