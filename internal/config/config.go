package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/cellctl/internal/scenario"
	"github.com/pelletier/go-toml/v2"
)

// ScenarioConfig is the tooling view of cmd/cellctl's config file schema,
// used by configgen for template generation and whole-file validation.
type ScenarioConfig struct {
	RecordID     string `toml:"record_id"`
	InitialValue int    `toml:"initial_value"`
	SetTo        int    `toml:"set_to"`
}

func LoadScenarioConfig(path string) (ScenarioConfig, error) {
	var cfg ScenarioConfig
	if err := loadToml(path, &cfg); err != nil {
		return ScenarioConfig{}, err
	}
	if cfg.RecordID == "" {
		cfg.RecordID = scenario.DefaultConfig().RecordID
	}
	if err := ValidateScenarioConfig(cfg); err != nil {
		return ScenarioConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateScenarioConfig(cfg ScenarioConfig) error {
	if strings.TrimSpace(cfg.RecordID) == "" {
		return fmt.Errorf("scenario config missing record_id")
	}
	return nil
}

// Scenario converts the file schema into the runtime demonstration config.
func (c ScenarioConfig) Scenario() scenario.Config {
	return scenario.Config{
		RecordID:     c.RecordID,
		InitialValue: c.InitialValue,
		SetTo:        c.SetTo,
	}
}
