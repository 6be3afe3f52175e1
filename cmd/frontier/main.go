package main

import (
	"os"

	"github.com/wonny/frontier/cmd/frontier/commands"
)

// main is the entry point for the frontier CLI
// ⭐ single CLI entry point: go run ./cmd/frontier [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
