package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSettings(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write settings: %v", err)
	}
	return path
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		valid    bool
		errorHas string
		warnHas  string
	}{
		{
			name:    "valid",
			content: "port: 9090\nboard_size: 9\nmine_count: 10\nsession_ttl: 1h\n",
			valid:   true,
		},
		{
			name:  "empty file uses defaults",
			valid: true,
		},
		{
			name:     "unknown key",
			content:  "board_size: 9\nmines: 10\n",
			errorHas: "field mines not found",
		},
		{
			name:     "syntax error",
			content:  "board_size: [9\n",
			errorHas: "Invalid YAML",
		},
		{
			name:     "too many mines",
			content:  "board_size: 3\nmine_count: 9\n",
			errorHas: "mine_count",
		},
		{
			name:     "board above maximum",
			content:  "board_size: 40\nmine_count: 100\nmax_board_size: 32\n",
			errorHas: "board_size",
		},
		{
			name:    "dense board",
			content: "board_size: 4\nmine_count: 8\n",
			valid:   true,
			warnHas: "Mine density 50%",
		},
		{
			name:    "ttl shorter than cleanup",
			content: "session_ttl: 1m\ncleanup_interval: 5m\n",
			valid:   true,
			warnHas: "shorter than cleanup_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validateFile(writeSettings(t, "settings.yaml", tt.content))

			if result.Valid != tt.valid {
				t.Fatalf("Expected valid=%v, got %v (errors: %v)", tt.valid, result.Valid, result.Errors)
			}
			if tt.errorHas != "" && !strings.Contains(strings.Join(result.Errors, "\n"), tt.errorHas) {
				t.Errorf("Expected error containing %q, got %v", tt.errorHas, result.Errors)
			}
			if tt.warnHas != "" && !strings.Contains(strings.Join(result.Warnings, "\n"), tt.warnHas) {
				t.Errorf("Expected warning containing %q, got %v", tt.warnHas, result.Warnings)
			}
		})
	}
}

func TestValidateFile_Missing(t *testing.T) {
	result := validateFile("/non/existent/settings.yaml")
	if result.Valid {
		t.Error("Expected missing file to be invalid")
	}
	if result.File != "settings.yaml" {
		t.Errorf("Expected base name, got %s", result.File)
	}
}

func TestApp(t *testing.T) {
	good := writeSettings(t, "good.yaml", "board_size: 9\nmine_count: 10\n")
	bad := writeSettings(t, "bad.yaml", "port: -1\n")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	if err := app.Run(context.Background(), []string{"validate", good}); err != nil {
		t.Errorf("Expected success for valid file, got %v", err)
	}
	if !strings.Contains(out.String(), "✅ good.yaml") || !strings.Contains(out.String(), "1/1 files valid") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := app.Run(context.Background(), []string{"validate", good, bad}); err == nil {
		t.Error("Expected error when a file is invalid")
	}
	if !strings.Contains(out.String(), "❌ bad.yaml") || !strings.Contains(out.String(), "1/2 files valid") {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
}
