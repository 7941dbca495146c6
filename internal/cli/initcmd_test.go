package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentflight/flightrec/internal/config"
)

func TestInitCommandCreatesConfigAndLogDir(t *testing.T) {
	dir := t.TempDir()

	out, err := runRoot(t, "", "init", dir)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Created:") {
		t.Errorf("output = %q", out)
	}

	if _, err := os.Stat(filepath.Join(dir, config.ConfigFileName+".yaml")); err != nil {
		t.Errorf("config file missing: %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, "logs"))
	if err != nil || !info.IsDir() {
		t.Errorf("log directory missing: %v", err)
	}
}

func TestInitCommandRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	if _, err := runRoot(t, "", "init", dir); err != nil {
		t.Fatal(err)
	}
	if _, err := runRoot(t, "", "init", dir); err == nil {
		t.Fatal("expected refusal to overwrite existing configuration")
	}
}
