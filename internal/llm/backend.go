package llm

import (
	"context"
	"errors"
	"os"

	"etrade-assistant/internal/interfaces"
	"etrade-assistant/internal/llm/llmobs"
	"etrade-assistant/internal/llm/noop"
	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/store"
)

// Backend describes the model runtime the recommender talks to. It is
// resolved exactly once at startup; each variant carries only the knobs
// that exist for that runtime, so an invalid combination (GPU layers on
// the transformers runtime, a dtype on llama.cpp) cannot be represented.
type Backend interface {
	Name() string
	logFields() []any
}

// TransformersBackend is a HuggingFace transformers runtime.
type TransformersBackend struct {
	Device string // cuda or cpu
	Dtype  string
}

func (b TransformersBackend) Name() string { return "transformers" }
func (b TransformersBackend) logFields() []any {
	return []any{"device", b.Device, "dtype", b.Dtype}
}

// LlamaBackend is a llama.cpp runtime serving a local GGUF model.
type LlamaBackend struct {
	ModelPath string
	GPULayers int
	UseMMap   bool
	UseMlock  bool
}

func (b LlamaBackend) Name() string { return "llama" }
func (b LlamaBackend) logFields() []any {
	return []any{"model_path", b.ModelPath, "gpu_layers", b.GPULayers,
		"use_mmap", b.UseMMap, "use_mlock", b.UseMlock}
}

// ResolveBackend picks the concrete runtime variant from the configuration.
// The transformers "auto" device resolves to cuda only when a GPU is
// visible to the process.
func ResolveBackend(cfg *store.Config) (Backend, error) {
	switch cfg.LLM.Backend {
	case "transformers":
		device := cfg.LLM.Transformers.Device
		if device == "auto" {
			device = "cpu"
			if os.Getenv("CUDA_VISIBLE_DEVICES") != "" {
				device = "cuda"
			}
		}
		return TransformersBackend{Device: device, Dtype: cfg.LLM.Transformers.Dtype}, nil

	case "llama":
		path := cfg.LLM.Llama.ModelPath
		if path == "" {
			path = os.Getenv("MISTRAL_GGUF_PATH")
		}
		if path == "" {
			return nil, errors.New("llama backend requires llm.llama.model_path or MISTRAL_GGUF_PATH")
		}
		useMMap := true
		if cfg.LLM.Llama.UseMMap != nil {
			useMMap = *cfg.LLM.Llama.UseMMap
		}
		return LlamaBackend{
			ModelPath: path,
			GPULayers: cfg.LLM.Llama.GPULayers,
			UseMMap:   useMMap,
			UseMlock:  cfg.LLM.Llama.UseMlock,
		}, nil
	}
	return nil, errors.New("unknown llm backend: " + cfg.LLM.Backend)
}

// NewRecommender builds the recommendation engine for the configured
// backend, wrapped with observability. When the backend cannot be resolved
// the engine degrades to the noop recommender instead of failing startup;
// the rest of the assistant keeps working without analysis.
func NewRecommender(ctx context.Context, cfg *store.Config) interfaces.Recommender {
	backend, err := ResolveBackend(cfg)
	if err != nil {
		logger.Warn(ctx, "Model backend unavailable, falling back to noop recommender", "error", err)
		return llmobs.Wrap(noop.NewRecommender())
	}
	logger.Info(ctx, "Model backend resolved",
		append([]any{"backend", backend.Name(), "model", cfg.LLM.Model}, backend.logFields()...)...)
	return llmobs.Wrap(NewMistralRecommender(cfg, backend))
}
