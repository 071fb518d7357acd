package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoforge/internal/secrets"
)

func TestLogHandlerKeepsBoundAttrs(t *testing.T) {
	handler := NewTestLogHandler()
	logger := slog.New(handler).With("request_id", "abc").WithGroup("enrollment")

	logger.Info("submitted", "template", "WebServer")
	slog.New(handler).Warn("plain")

	records := handler.GetRecords()
	require.Len(t, records, 2)
	assert.Equal(t, "abc", records[0].Attrs["request_id"])
	assert.Equal(t, "WebServer", records[0].Attrs["enrollment.template"])
	assert.Empty(t, records[1].Attrs)
	assert.True(t, handler.ContainsMessage(slog.LevelWarn, "plain"))
	assert.Equal(t, 1, handler.CountByLevel(slog.LevelInfo))

	handler.Reset()
	assert.Empty(t, handler.GetRecords())
}

func TestLogHandlerResolvesCredentialRedaction(t *testing.T) {
	handler := NewTestLogHandler()
	logger := slog.New(handler)

	logger.Info("fetched credential", "credential", secrets.Credential{Username: "svc", Password: "hunter2"})

	assert.False(t, handler.ContainsValue("hunter2"))
	assert.True(t, handler.ContainsValue("svc"))
	assert.Equal(t, "REDACTED", handler.GetRecords()[0].Attrs["credential.password"])
}
