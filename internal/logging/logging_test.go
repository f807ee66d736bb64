package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/property-analyzer/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefaultFormat(t *testing.T) {
	if got := DefaultFormat("", true); got != FormatConsole {
		t.Errorf("interactive default = %s, expected console", got)
	}
	if got := DefaultFormat("", false); got != FormatJSON {
		t.Errorf("non-interactive default = %s, expected json", got)
	}
	if got := DefaultFormat("app.log", true); got != FormatJSON {
		t.Errorf("file default = %s, expected json", got)
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "analyzer.log")

	logger, err := New(config.LoggingConfig{Level: "info", OutputFile: path}, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Debug("hidden", zap.String("op", "logging.TestNewWritesToFile"))
	logger.Info("analysis complete", zap.String("op", "logging.TestNewWritesToFile"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"analysis complete"`) {
		t.Errorf("expected JSON info entry, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug entry should be filtered at info level: %q", out)
	}
}

func TestNewLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analyzer.log")

	logger, err := New(config.LoggingConfig{Level: "error", Format: FormatJSON, OutputFile: path}, "debug")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("override should enable debug logging")
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LoggingConfig
		override string
	}{
		{"level", config.LoggingConfig{Level: "loud"}, ""},
		{"override", config.LoggingConfig{Level: "info"}, "loud"},
		{"format", config.LoggingConfig{Format: "xml"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, tt.override); err == nil {
				t.Error("expected error")
			}
		})
	}
}
