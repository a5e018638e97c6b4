package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meenmo/credlib/logging"
)

func TestNew_FileOutputRotates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "credlib.log")
	cfg := logging.DefaultConfig
	cfg.Output = "file"
	cfg.Format = "json"
	cfg.Level = "debug"
	cfg.FilePath = path

	l, err := logging.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Debug("calibration step", "shift", 0.0123)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), `"msg":"calibration step"`) || !strings.Contains(string(b), `"shift":0.0123`) {
		t.Fatalf("unexpected log line: %s", b)
	}
}

func TestNew_LevelFilter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "warn.log")
	cfg := logging.DefaultConfig
	cfg.Output = "file"
	cfg.FilePath = path

	l, err := logging.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")

	b, _ := os.ReadFile(path)
	if strings.Contains(string(b), "hidden") || !strings.Contains(string(b), "shown") {
		t.Fatalf("warn level filter not applied: %s", b)
	}
}
