package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Format(t *testing.T) {
	tests := []struct {
		name   string
		format string
		check  func(t *testing.T, out string)
	}{
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				var record map[string]any
				if err := json.Unmarshal([]byte(out), &record); err != nil {
					t.Fatalf("output is not JSON: %v (%q)", err, out)
				}
				if record["msg"] != "imported entry" || record["entry_id"] != float64(7) {
					t.Errorf("record = %v", record)
				}
			},
		},
		{
			name:   "text",
			format: "text",
			check: func(t *testing.T, out string) {
				if !strings.Contains(out, `msg="imported entry"`) || !strings.Contains(out, "entry_id=7") {
					t.Errorf("output = %q", out)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, closer := New(Options{Level: slog.LevelInfo, Format: tt.format}, &buf)
			defer func() {
				_ = closer.Close()
			}()

			logger.Info("imported entry", "entry_id", 7)
			tt.check(t, strings.TrimSpace(buf.String()))
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(Options{Level: slog.LevelWarn}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("output = %q", out)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "journal.log")
	var buf bytes.Buffer
	logger, closer := New(Options{Level: slog.LevelInfo, File: path}, &buf)

	logger.Info("to both")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "to both") || !strings.Contains(buf.String(), "to both") {
		t.Errorf("file = %q, stdout = %q", data, buf.String())
	}
}
