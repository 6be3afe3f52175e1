package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wonny/frontier/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"invalid", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log output %q: %v", buf.String(), err)
	}
	buf.Reset()
	return entry
}

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "staging", LogLevel: "debug", LogFormat: "json"})

	log.Infof("optimized %d assets", 3)
	entry := decodeLine(t, &buf)

	if entry["message"] != "optimized 3 assets" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("unexpected level %v", entry["level"])
	}
	if entry["env"] != "staging" {
		t.Errorf("unexpected env %v", entry["env"])
	}
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "development", LogLevel: "info", LogFormat: "console"})

	log.Warn("low sample count")
	if !strings.Contains(buf.String(), "low sample count") {
		t.Errorf("console output missing message: %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, &config.Config{Env: "production", LogLevel: "warn"})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info entry should be filtered at warn level, got %q", buf.String())
	}

	log.Error("kept")
	if buf.Len() == 0 {
		t.Error("error entry should pass the warn level")
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

func TestFieldHelpers(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	base := &Logger{zlog: zerolog.New(&buf)}

	base.WithComponent("optimizer").
		WithFields(map[string]interface{}{"assets": 4, "method": "bfgs"}).
		WithError(errors.New("line search stalled")).
		Debug("solver finished")

	entry := decodeLine(t, &buf)
	if entry["component"] != "optimizer" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["assets"] != float64(4) {
		t.Errorf("assets = %v", entry["assets"])
	}
	if entry["method"] != "bfgs" {
		t.Errorf("method = %v", entry["method"])
	}
	if entry["error"] != "line search stalled" {
		t.Errorf("error = %v", entry["error"])
	}

	base.WithField("run_id", "abc").Info("persisted")
	entry = decodeLine(t, &buf)
	if entry["run_id"] != "abc" {
		t.Errorf("run_id = %v", entry["run_id"])
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("nothing happens")
	log.WithComponent("x").Infof("still %s", "nothing")
}
