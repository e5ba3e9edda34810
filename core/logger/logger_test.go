package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComponentBeforeInit(t *testing.T) {
	prev := L
	L = nil
	t.Cleanup(func() { L = prev })

	log := Component("session")
	require.NotNil(t, log)
	require.NotPanics(t, func() {
		log.Warn("state load failed", "err", "connection refused")
		log.Debug("event handled", slog.Int64("chat_id", 1))
	})
}

func TestEventHelpersBeforeInit(t *testing.T) {
	prev := L
	L = nil
	t.Cleanup(func() { L = prev })

	ctx := Background()
	require.NotPanics(t, func() {
		Debug(ctx, "auth", "cache.read_failed")
		Warn(ctx, "mail", "send.failed", slog.String("to", "user@example.com"))
		Error(ctx, "", "no.component")
	})
}

func TestComponentAttachesAttribute(t *testing.T) {
	prev := L
	L = slog.New(slog.NewTextHandler(&captureWriter{}, nil))
	t.Cleanup(func() { L = prev })

	require.NotNil(t, Component("tg"))
	require.Same(t, L, Component("  "))
}

type captureWriter struct{}

func (*captureWriter) Write(p []byte) (int, error) { return len(p), nil }
