package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		logDebug  bool
		checkFunc func(t *testing.T, output string)
	}{
		{
			name:   "Text logger at info level",
			config: Config{Level: "info", Format: "text", Output: "stdout"},
			checkFunc: func(t *testing.T, output string) {
				if !strings.Contains(output, "level=INFO") ||
					!strings.Contains(output, `msg="test message"`) {
					t.Errorf("expected text output with info level and message, got: %s", output)
				}
			},
		},
		{
			name:     "JSON logger at debug level",
			config:   Config{Level: "debug", Format: "json", Output: "stdout"},
			logDebug: true,
			checkFunc: func(t *testing.T, output string) {
				var entry map[string]any
				if err := json.Unmarshal([]byte(output), &entry); err != nil {
					t.Fatalf("failed to unmarshal JSON log: %v, output: %s", err, output)
				}
				if entry["level"] != "DEBUG" || entry["msg"] != "test message" {
					t.Errorf("expected JSON output with debug level and message, got: %v", entry)
				}
			},
		},
		{
			name:   "Debug suppressed at info level",
			config: Config{Level: "info", Format: "text", Output: "stdout"},
			checkFunc: func(t *testing.T, output string) {
				if strings.Contains(output, "level=DEBUG") {
					t.Errorf("debug record should be suppressed at info level, got: %s", output)
				}
			},
		},
		{
			name:   "Unknown level falls back to info",
			config: Config{Level: "loud", Format: "text", Output: "stdout"},
			checkFunc: func(t *testing.T, output string) {
				if !strings.Contains(output, "level=INFO") {
					t.Errorf("expected info level fallback, got: %s", output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger(tt.config, &buf)

			if tt.logDebug {
				log.Debug("test message")
			} else {
				log.Info("test message")
			}

			tt.checkFunc(t, buf.String())
		})
	}
}
