package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"` // SANDBOX or LIVE

	Auth struct {
		IdleMinutes int `yaml:"idle_minutes"`
	} `yaml:"auth"`

	LLM struct {
		Backend     string  `yaml:"backend"` // transformers or llama
		Model       string  `yaml:"model"`
		BaseURL     string  `yaml:"base_url"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`

		Transformers struct {
			Device string `yaml:"device"` // cuda, cpu or auto
			Dtype  string `yaml:"dtype"`
		} `yaml:"transformers"`

		Llama struct {
			ModelPath string `yaml:"model_path"`
			GPULayers int    `yaml:"gpu_layers"`
			UseMMap   *bool  `yaml:"use_mmap"`
			UseMlock  bool   `yaml:"use_mlock"`
		} `yaml:"llama"`
	} `yaml:"llm"`

	News struct {
		CacheMinutes int `yaml:"cache_minutes"`
		MaxItems     int `yaml:"max_items"`
	} `yaml:"news"`

	Simulation struct {
		PortfolioFile string  `yaml:"portfolio_file"`
		DefaultPrice  float64 `yaml:"default_price"`
	} `yaml:"simulation"`

	UserConfigFile string `yaml:"user_config_file"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = "SANDBOX"
	}
	if c.Auth.IdleMinutes == 0 {
		c.Auth.IdleMinutes = 90
	}
	if c.LLM.Backend == "" {
		c.LLM.Backend = "transformers"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "mistralai/Mistral-7B-Instruct-v0.2"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.Transformers.Device == "" {
		c.LLM.Transformers.Device = "auto"
	}
	if c.LLM.Transformers.Dtype == "" {
		c.LLM.Transformers.Dtype = "auto"
	}
	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 15
	}
	if c.News.MaxItems == 0 {
		c.News.MaxItems = 5
	}
	if c.Simulation.PortfolioFile == "" {
		c.Simulation.PortfolioFile = "user_data/portfolio.json"
	}
	if c.Simulation.DefaultPrice == 0 {
		c.Simulation.DefaultPrice = 100.00
	}
	if c.UserConfigFile == "" {
		c.UserConfigFile = "user_data/user_config.json"
	}
}

func (c *Config) Validate() error {
	if c.Environment != "SANDBOX" && c.Environment != "LIVE" {
		return fmt.Errorf("invalid environment '%s': must be 'SANDBOX' or 'LIVE'", c.Environment)
	}
	if c.LLM.Backend != "transformers" && c.LLM.Backend != "llama" {
		return fmt.Errorf("invalid llm.backend '%s': must be 'transformers' or 'llama'", c.LLM.Backend)
	}
	if c.Auth.IdleMinutes < 0 {
		return fmt.Errorf("auth.idle_minutes must not be negative, got %d", c.Auth.IdleMinutes)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0-2, got %.2f", c.LLM.Temperature)
	}
	if c.Simulation.DefaultPrice <= 0 {
		return fmt.Errorf("simulation.default_price must be positive, got %.2f", c.Simulation.DefaultPrice)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
