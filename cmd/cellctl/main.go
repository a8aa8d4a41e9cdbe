package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/cellctl/internal/logging"
	"github.com/danmuck/cellctl/internal/observability"
	"github.com/danmuck/cellctl/internal/scenario"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "optional TOML file describing the record under demonstration")
	flag.Parse()

	logging.ConfigureRuntime()
	observability.RegisterMetrics()

	cfg, err := loadScenarioConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cellctl: %v\n", err)
		os.Exit(1)
	}
	if err := scenario.Run(cfg, log.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "cellctl: %v\n", err)
		os.Exit(1)
	}
}
