package main

import (
	"os"

	"github.com/wonny/signalbt/cmd/signalbt/commands"
)

// main is the entry point for the signalbt CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/signalbt [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
