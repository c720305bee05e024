package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	cases := []struct {
		name      string
		level     string
		wantLevel zerolog.Level
	}{
		{"explicit level", "warn", zerolog.WarnLevel},
		{"empty falls back to info", "", zerolog.InfoLevel},
		{"unknown falls back to info", "loud", zerolog.InfoLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			Setup(tc.level, &bytes.Buffer{})
			if got := zerolog.GlobalLevel(); got != tc.wantLevel {
				t.Fatalf("GlobalLevel() = %v; want %v", got, tc.wantLevel)
			}
		})
	}
}

func TestSetup_WritesConsoleFormat(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := Setup("info", &buf)
	logger.Info().Str("base_url", "http://localhost:8000").Msg("Testing backend API...")

	out := buf.String()
	if !strings.Contains(out, "Testing backend API...") || !strings.Contains(out, "base_url=") {
		t.Fatalf("unexpected console output: %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Fatalf("expected console format, got JSON: %q", out)
	}
}
