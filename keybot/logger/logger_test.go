package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler_FormatsTypeAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Info("Key claimed", slog.String("type", "cmd"), slog.String("user", "alice"))

	out := buf.String()
	assert.Contains(t, out, "[KeyBot]")
	assert.Contains(t, out, "[CMD]")
	assert.Contains(t, out, "Key claimed")
	assert.Contains(t, out, "user=alice")
	assert.NotContains(t, out, "type=cmd")
}

func TestHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	log.Info("quiet")
	assert.Empty(t, buf.String())

	log.Error("loud", slog.String("type", "error"), slog.Any("error", errors.New("boom")))
	assert.Contains(t, buf.String(), "[ERR]")
	assert.Contains(t, buf.String(), "error=boom")
}

func TestHandler_SkipsGatewayChatter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	log.Debug("sending heartbeat")
	assert.Empty(t, buf.String())
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, nil)).With(slog.String("type", "db")).WithGroup("round")

	log.Info("Round opened", slog.Int64("number", 2))

	out := buf.String()
	assert.Contains(t, out, "[DB]")
	assert.Contains(t, out, "round.number=2")
}

func TestHandler_CommandAndStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, nil))

	log.Info("Command completed",
		slog.String("type", "cmd"),
		slog.String("name", "give_key"),
		slog.String("user_name", "admin"),
		slog.String("status", "success"))

	assert.Contains(t, buf.String(), "[give_key by admin] [Status: success]")
}
