package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"etrade-assistant/internal/logger"
	"etrade-assistant/internal/types"
)

// UserConfig holds user preferences that survive restarts, most importantly
// the risk profile the recommendation gate enforces. Backed by a small JSON
// file; a missing or corrupt file silently falls back to defaults.
type UserConfig struct {
	mu   sync.Mutex
	path string
	data userConfigData
}

type userConfigData struct {
	RiskProfile types.RiskProfile `json:"risk_profile"`
}

func defaultUserConfigData() userConfigData {
	return userConfigData{RiskProfile: types.RiskMedium}
}

func NewUserConfig(ctx context.Context, path string) *UserConfig {
	uc := &UserConfig{path: path, data: defaultUserConfigData()}

	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn(ctx, "Failed to read user config, using defaults", "path", path, "error", err)
		}
		return uc
	}

	var loaded userConfigData
	if err := json.Unmarshal(b, &loaded); err != nil {
		logger.Warn(ctx, "User config is not valid JSON, using defaults", "path", path, "error", err)
		return uc
	}
	if loaded.RiskProfile.Valid() {
		uc.data.RiskProfile = loaded.RiskProfile
	}
	return uc
}

func (uc *UserConfig) RiskProfile() types.RiskProfile {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.data.RiskProfile
}

// SetRiskProfile validates and persists the new profile.
func (uc *UserConfig) SetRiskProfile(ctx context.Context, profile types.RiskProfile) error {
	if !profile.Valid() {
		return fmt.Errorf("invalid risk profile %q: must be Low, Medium or High", profile)
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.data.RiskProfile = profile
	if err := uc.save(); err != nil {
		return err
	}
	logger.Info(ctx, "Risk profile updated", "profile", profile)
	return nil
}

func (uc *UserConfig) save() error {
	if err := os.MkdirAll(filepath.Dir(uc.path), 0o755); err != nil {
		return fmt.Errorf("create user config dir: %w", err)
	}
	b, err := json.MarshalIndent(uc.data, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(uc.path, b, 0o600); err != nil {
		return fmt.Errorf("write user config: %w", err)
	}
	return nil
}
