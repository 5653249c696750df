package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/store"
	"etrade-assistant/internal/trace"
	"etrade-assistant/internal/types"
)

const defaultBaseURL = "http://127.0.0.1:8080"

// MistralRecommender talks to a locally served Mistral instance over the
// OpenAI-compatible chat completions endpoint that both runtimes expose.
// The model's free-text answer is parsed into a structured recommendation
// and gated against the user's risk profile before it is returned.
type MistralRecommender struct {
	cfg     *store.Config
	backend Backend
	baseURL string
	client  *http.Client
}

var _ interfaces.Recommender = (*MistralRecommender)(nil)

func NewMistralRecommender(cfg *store.Config, backend Backend) *MistralRecommender {
	baseURL := strings.TrimRight(cfg.LLM.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &MistralRecommender{
		cfg:     cfg,
		backend: backend,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (r *MistralRecommender) Recommend(ctx context.Context, input types.AnalysisInput) (types.Recommendation, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Recommend")
	defer span.End()

	prompt := BuildAnalysisPrompt(input)
	logger.Debug(ctx, "Prompt prepared", "ticker", input.Ticker, "prompt_length", len(prompt))

	body := map[string]any{
		"model":       r.cfg.LLM.Model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": r.cfg.LLM.Temperature,
		"max_tokens":  r.cfg.LLM.MaxTokens,
	}
	bb, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/v1/chat/completions", bytes.NewReader(bb))
	if err != nil {
		return types.Recommendation{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("MISTRAL_API_KEY"); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	start := time.Now()
	resp, err := r.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		logger.ErrorWithErr(ctx, "Model request failed", err,
			"ticker", input.Ticker, "backend", r.backend.Name())
		return types.Recommendation{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("model http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		logger.ErrorWithErr(ctx, "Model returned error status", err, "ticker", input.Ticker)
		return types.Recommendation{}, err
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return types.Recommendation{}, fmt.Errorf("decode model response: %w", err)
	}
	if len(out.Choices) == 0 {
		return types.Recommendation{}, errors.New("model response contains no choices")
	}

	raw := strings.TrimSpace(out.Choices[0].Message.Content)
	logger.Debug(ctx, "Raw model output received",
		"ticker", input.Ticker, "length", len(raw), "latency_ms", latency.Milliseconds())

	rec := ParseRecommendation(ctx, raw)
	if rec.Ticker == "N/A" {
		rec.Ticker = input.Ticker
	}
	EnforceRiskProfile(ctx, &rec, input.RiskProfile)
	return rec, nil
}
