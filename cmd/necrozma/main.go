package main

import (
	"os"

	"github.com/dans91364-create/NECROZMAv2/cmd/necrozma/commands"
)

// main is the entry point for the labeling CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/necrozma [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
