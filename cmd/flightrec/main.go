package main

import (
	"fmt"
	"os"

	app "github.com/agentflight/flightrec/internal"
	"github.com/agentflight/flightrec/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	a, err := app.NewApp(basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing flightrec: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = a.Recorder.Close() }()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
