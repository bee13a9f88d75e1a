// Package main provides the entry point for the tally CLI tool.
package main

import (
	"github.com/agentstation/tally/cmd/tally/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
