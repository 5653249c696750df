package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"etrade-assistant/internal/store"
	"etrade-assistant/internal/types"
)

func TestRecommendParsesAndGates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			t.Error("request carries no messages")
		}

		content := "Ticker: NVDA\nConfidence: 90%\nRisk Level: High\nSuggested Action: BUY\nReasoning Summary: Breakout."
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
	defer srv.Close()

	cfg := store.Default()
	cfg.LLM.BaseURL = srv.URL

	rec, err := NewMistralRecommender(cfg, TransformersBackend{Device: "cpu"}).
		Recommend(context.Background(), types.AnalysisInput{Ticker: "NVDA", RiskProfile: types.RiskLow})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if rec.Confidence != 90 || rec.RiskLevel != "High" {
		t.Errorf("parsed fields wrong: %+v", rec)
	}
	if rec.Action != "HOLD" {
		t.Errorf("High risk against a Low profile must come back HOLD, got %q", rec.Action)
	}
}

func TestRecommendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := store.Default()
	cfg.LLM.BaseURL = srv.URL

	_, err := NewMistralRecommender(cfg, TransformersBackend{Device: "cpu"}).
		Recommend(context.Background(), types.AnalysisInput{Ticker: "AAPL", RiskProfile: types.RiskMedium})
	if err == nil {
		t.Fatal("server error must surface to the caller")
	}
}

func TestResolveBackend(t *testing.T) {
	cfg := store.Default()
	backend, err := ResolveBackend(cfg)
	if err != nil {
		t.Fatalf("ResolveBackend: %v", err)
	}
	tb, ok := backend.(TransformersBackend)
	if !ok {
		t.Fatalf("default backend %T, want TransformersBackend", backend)
	}
	if tb.Device != "cpu" && tb.Device != "cuda" {
		t.Errorf("auto device resolved to %q", tb.Device)
	}

	cfg.LLM.Backend = "llama"
	t.Setenv("MISTRAL_GGUF_PATH", "")
	if _, err := ResolveBackend(cfg); err == nil {
		t.Error("llama backend without a model path must fail")
	}

	cfg.LLM.Llama.ModelPath = "/models/mistral.gguf"
	cfg.LLM.Llama.GPULayers = 35
	backend, err = ResolveBackend(cfg)
	if err != nil {
		t.Fatalf("ResolveBackend llama: %v", err)
	}
	lb, ok := backend.(LlamaBackend)
	if !ok {
		t.Fatalf("backend %T, want LlamaBackend", backend)
	}
	if lb.GPULayers != 35 || !lb.UseMMap {
		t.Errorf("llama backend %+v, want 35 gpu layers and mmap on by default", lb)
	}
}
