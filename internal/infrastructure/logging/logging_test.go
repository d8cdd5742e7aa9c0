package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"kaching-analytics/internal/infrastructure/config"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger.Info().Msg("hidden")
	logger.Warn().Str("merchant_id", "m1").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["merchant_id"] != "m1" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSetup_BadLevelFallsBack(t *testing.T) {
	var buf bytes.Buffer
	setup(config.LogConfig{Level: "loud"}, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("expected info, got %s", zerolog.GlobalLevel())
	}
}
