// Package main is the entry point for the portfolio backend.
//
// The main package stays minimal: every subcommand lives in
// cmd/server/commands, and all real logic in internal/. Running the binary
// with no arguments starts the HTTP server.
package main

import (
	"os"

	"github.com/sudeepta/portfolio/cmd/server/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
