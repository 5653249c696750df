package llm

import (
	"fmt"
	"strings"
	"time"

	"etrade-assistant/internal/types"
)

// historyTail limits how many candles the model sees; older history adds
// tokens without adding signal.
const historyTail = 5

// BuildAnalysisPrompt renders the analysis request the model answers. The
// model is instructed to reply in the exact line-oriented format that
// ParseRecommendation expects.
func BuildAnalysisPrompt(in types.AnalysisInput) string {
	profile := in.RiskProfile
	if !profile.Valid() {
		profile = types.RiskMedium
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following stock data for %s and provide a structured investment recommendation.\n", in.Ticker)
	b.WriteString("Focus on pattern recognition (technical breakouts, reversals, momentum setups), profit maximization, and strict risk management.\n")
	fmt.Fprintf(&b, "The recommendation must adhere to the user's risk profile: %s.\n", profile)
	b.WriteString("If a recommendation's risk level exceeds the user's profile, DO NOT recommend it.\n\n")

	fmt.Fprintf(&b, "Market Data for %s:\n\nReal-time Quote:\n", in.Ticker)
	if q := in.Quote; q != nil {
		fmt.Fprintf(&b, "Last Price: %.2f\n", q.LastPrice)
		fmt.Fprintf(&b, "Change (%%): %.2f\n", q.ChangePct)
		fmt.Fprintf(&b, "Volume: %d\n", q.Volume)
		fmt.Fprintf(&b, "Bid: %.2f\n", q.Bid)
		fmt.Fprintf(&b, "Ask: %.2f\n", q.Ask)
		fmt.Fprintf(&b, "High: %.2f\n", q.High)
		fmt.Fprintf(&b, "Low: %.2f\n", q.Low)
	} else {
		b.WriteString("No real-time quote available.\n")
	}

	b.WriteString("\nHistorical Data (most recent sessions):\n")
	history := in.History
	if len(history) > historyTail {
		history = history[len(history)-historyTail:]
	}
	if len(history) == 0 {
		b.WriteString("No historical data available.\n")
	}
	for i, c := range history {
		date := time.Unix(c.Ts, 0).UTC().Format("2006-01-02")
		fmt.Fprintf(&b, "Day %d: Date=%s, Open=%.2f, High=%.2f, Low=%.2f, Close=%.2f, Volume=%d\n",
			i+1, date, c.Open, c.High, c.Low, c.Close, c.Vol)
	}

	b.WriteString("\nRecent News:\n")
	if len(in.News) == 0 {
		b.WriteString("No recent news available.\n")
	}
	for _, item := range in.News {
		if item.Source != "" {
			fmt.Fprintf(&b, "- %s (%s)\n", item.Headline, item.Source)
		} else {
			fmt.Fprintf(&b, "- %s\n", item.Headline)
		}
	}

	b.WriteString("\nYour Task:\n")
	b.WriteString("1. Analyze: identify significant technical patterns (trends, support/resistance, breakouts, reversals) and integrate the news sentiment.\n")
	b.WriteString("2. Evaluate Risk: assign a clear Risk Level (Low, Medium, High) to your recommendation.\n")
	fmt.Fprintf(&b, "3. Adhere to User Risk Profile: if your Risk Level is HIGHER than the user's '%s' profile, output 'Suggested Action: HOLD' and explain why in the Reasoning Summary.\n", profile)
	b.WriteString("4. Determine Time Horizon: Short-term (days), Swing (weeks), or Long-term (months).\n")
	b.WriteString("5. Structure Output: respond in the exact format below, each field on its own line, with no other text before or after.\n\n")

	b.WriteString("Recommendation Format:\n")
	b.WriteString("Ticker: [Ticker Symbol]\n")
	b.WriteString("Confidence: [%, e.g., 85%]\n")
	b.WriteString("Risk Level: [Low/Medium/High]\n")
	b.WriteString("Suggested Action: [BUY/SELL/HOLD]\n")
	b.WriteString("Expected Time Horizon: [Short-term (days)/Swing (weeks)/Long-term (months)]\n")
	b.WriteString("Reasoning Summary: [Concise explanation, max 2-3 sentences.]\n")

	return b.String()
}
