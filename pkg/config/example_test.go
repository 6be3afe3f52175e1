package config_test

import (
	"fmt"

	"github.com/wonny/frontier/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	// Access configuration values
	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Portfolio value: %.0f %s\n", cfg.Portfolio.Value, cfg.Portfolio.Currency)
	fmt.Printf("Frontier samples: %d\n", cfg.Portfolio.FrontierSamples)
}
