package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"etrade-assistant/internal/types"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environment != "SANDBOX" {
		t.Errorf("default environment %q, want SANDBOX", cfg.Environment)
	}
	if cfg.Auth.IdleMinutes != 90 {
		t.Errorf("default idle minutes %d, want 90", cfg.Auth.IdleMinutes)
	}
	if cfg.LLM.Backend != "transformers" {
		t.Errorf("default backend %q, want transformers", cfg.LLM.Backend)
	}
}

func TestLoadConfigValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: PROD\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("unknown environment must fail validation")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
environment: LIVE
auth:
  idle_minutes: 30
llm:
  backend: llama
  llama:
    model_path: /models/mistral.gguf
    gpu_layers: 35
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Environment != "LIVE" || cfg.Auth.IdleMinutes != 30 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LLM.Backend != "llama" || cfg.LLM.Llama.GPULayers != 35 {
		t.Errorf("llama backend not applied: %+v", cfg.LLM)
	}
	// Untouched sections still get defaults.
	if cfg.News.MaxItems != 5 {
		t.Errorf("news defaults missing: %+v", cfg.News)
	}
}

func TestUserConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_config.json")

	uc := NewUserConfig(context.Background(), path)
	if got := uc.RiskProfile(); got != types.RiskMedium {
		t.Errorf("default profile %v, want Medium", got)
	}

	if err := uc.SetRiskProfile(context.Background(), types.RiskHigh); err != nil {
		t.Fatalf("SetRiskProfile: %v", err)
	}
	if err := uc.SetRiskProfile(context.Background(), "Reckless"); err == nil {
		t.Error("invalid profile must be rejected")
	}

	reloaded := NewUserConfig(context.Background(), path)
	if got := reloaded.RiskProfile(); got != types.RiskHigh {
		t.Errorf("reloaded profile %v, want High", got)
	}
}
