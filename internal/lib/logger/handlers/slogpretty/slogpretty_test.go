package slogpretty_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/fatih/color"
	"github.com/linemk/season-swap/internal/lib/logger/handlers/slogpretty"
	"github.com/stretchr/testify/assert"
)

func TestPrettyHandler(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	opts := slogpretty.PrettyHandlerOptions{SlogOpts: &slog.HandlerOptions{Level: slog.LevelInfo}}
	log := slog.New(opts.NewPrettyHandler(&buf)).With(slog.String("op", "service.TradeService.Accept"))

	log.Debug("hidden")
	log.Warn("trade settlement rejected", slog.Int64("tradeID", 7), slog.Any("error", errors.New("conflict")))

	out := buf.String()
	assert.NotContains(t, out, "hidden", "debug records should be filtered by level")
	assert.Contains(t, out, "WARN:")
	assert.Contains(t, out, "trade settlement rejected")
	assert.Contains(t, out, `"op": "service.TradeService.Accept"`)
	assert.Contains(t, out, `"tradeID": 7`)
	assert.Contains(t, out, `"error": "conflict"`)
}
