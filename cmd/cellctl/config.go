package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/cellctl/internal/scenario"
)

type fileConfig struct {
	RecordID     string `toml:"record_id"`
	InitialValue int    `toml:"initial_value"`
	SetTo        int    `toml:"set_to"`
}

func loadScenarioConfig(path string) (scenario.Config, error) {
	cfg := scenario.DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return scenario.Config{}, fmt.Errorf("load scenario config: %w", err)
	}

	if meta.IsDefined("record_id") {
		id := strings.TrimSpace(raw.RecordID)
		if id == "" {
			return scenario.Config{}, fmt.Errorf("scenario config: blank record_id")
		}
		cfg.RecordID = id
	}

	if meta.IsDefined("initial_value") {
		cfg.InitialValue = raw.InitialValue
	}

	if meta.IsDefined("set_to") {
		cfg.SetTo = raw.SetTo
	}

	return cfg, nil
}
