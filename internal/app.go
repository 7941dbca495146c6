// Package internal provides the App struct that wires all components of
// flightrec together and initializes the CLI layer.
package internal

import (
	"io"
	"os"
	"path/filepath"

	"github.com/agentflight/flightrec/internal/cli"
	"github.com/agentflight/flightrec/internal/config"
	"github.com/agentflight/flightrec/internal/hooks"
	"github.com/agentflight/flightrec/internal/recorder"
)

// App holds all service dependencies for flightrec.
type App struct {
	BasePath string
	Config   *config.Config
	Recorder *recorder.Recorder
	Adapter  *hooks.Adapter
}

// NewApp creates and wires all flightrec components: configuration, the
// event recorder with its durable JSONL stream, and the callback adapter.
// Recorder construction never fails; a broken sink degrades to console-only
// mode so instrumentation can never take down the workflow being observed.
func NewApp(basePath string) (*App, error) {
	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, err
	}

	app := &App{BasePath: basePath, Config: cfg}

	logPath := cfg.ResolveLogPath(basePath)
	// Best effort; a failed mkdir just means the recorder starts degraded.
	_ = os.MkdirAll(filepath.Dir(logPath), 0o755)

	// The session file carries the run state between hook processes: each
	// hook command is its own process, so the execution id and in-flight
	// timers must outlive the process that started them.
	session := recorder.OpenSession(filepath.Join(basePath, recorder.SessionFileName), nil)

	var console io.Writer = os.Stderr
	app.Recorder = recorder.New(logPath,
		recorder.WithConsole(console),
		recorder.WithEcho(cfg.Log.Echo),
		recorder.WithSession(session),
	)
	app.Adapter = hooks.NewAdapter(app.Recorder)

	// Expose services to the CLI layer.
	cli.BasePath = basePath
	cli.Cfg = cfg
	cli.Rec = app.Recorder
	cli.Adapter = app.Adapter
	cli.LogPath = logPath

	return app, nil
}

// ResolveBasePath returns the directory flightrec treats as its workspace:
// $FLIGHTREC_HOME if set, otherwise the current working directory.
func ResolveBasePath() string {
	if home := os.Getenv("FLIGHTREC_HOME"); home != "" {
		return home
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
