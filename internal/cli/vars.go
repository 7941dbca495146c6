package cli

import (
	"github.com/agentflight/flightrec/internal/config"
	"github.com/agentflight/flightrec/internal/hooks"
	"github.com/agentflight/flightrec/internal/recorder"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Cfg      *config.Config
	Rec      *recorder.Recorder
	Adapter  *hooks.Adapter
	// LogPath is the resolved durable stream location, the default source
	// for the analyze, summary, and tail commands.
	LogPath string
)
