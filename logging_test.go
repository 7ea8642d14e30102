package phiguard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := NewScrubbingCore(inner, NewScrubber(NewScanner()))
	return zap.New(core), logs
}

func TestScrubbingCore_Message(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Info("lookup failed for SSN 123-45-6789")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lookup failed for SSN [REDACTED:SSN]", entries[0].Message)
}

func TestScrubbingCore_StringField(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Info("request rejected",
		zap.String("contact", "jane@clinic.org"),
		zap.String("path", "/api/notes"),
	)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED:EMAIL]", fields["contact"])
	assert.Equal(t, "/api/notes", fields["path"])
}

func TestScrubbingCore_ErrorField(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Error("upstream call failed",
		zap.Error(errors.New("lookup for 123-45-6789 timed out")))

	fields := logs.All()[0].ContextMap()
	got, ok := fields["error"].(string)
	require.True(t, ok)
	assert.Equal(t, "lookup for [REDACTED:SSN] timed out", got)
	assert.NotContains(t, got, "123-45-6789")
}

func TestScrubbingCore_ByteStringField(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Info("raw payload", zap.ByteString("payload", []byte("mail jane@clinic.org")))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "mail [REDACTED:EMAIL]", fields["payload"])
}

func TestScrubbingCore_AnyField(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Info("structured payload", zap.Any("req", map[string]any{
		"notes": "SSN 123-45-6789",
		"count": 2,
	}))

	fields := logs.All()[0].ContextMap()
	req, ok := fields["req"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "SSN [REDACTED:SSN]", req["notes"])
}

func TestScrubbingCore_AnyFieldMapKeys(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Info("per-contact counts", zap.Any("counts", map[string]int{
		"jane@clinic.org": 3,
	}))

	fields := logs.All()[0].ContextMap()
	counts, ok := fields["counts"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 3, counts["[REDACTED:EMAIL]"])
	assert.NotContains(t, counts, "jane@clinic.org")
}

func TestScrubbingCore_WithFieldsInherit(t *testing.T) {
	logger, logs := newObservedLogger()

	// Fields attached via With are scrubbed once at attach time and the
	// derived logger keeps the scrubbing core.
	child := logger.With(zap.String("owner", "Dr Amy Jones"))
	child.Warn("escalation for 987-65-4321")

	entry := logs.All()[0]
	assert.Equal(t, "escalation for [REDACTED:SSN]", entry.Message)
	assert.Equal(t, "[REDACTED:NAME]", entry.ContextMap()["owner"])
}

func TestScrubbingCore_LevelGateRespected(t *testing.T) {
	inner, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(NewScrubbingCore(inner, NewScrubber(NewScanner())))

	logger.Debug("below threshold, SSN 123-45-6789")
	logger.Warn("at threshold")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "at threshold", entries[0].Message)
}

func TestNewLogger_Builds(t *testing.T) {
	logger, err := NewLogger(true, NewScrubber(NewScanner()))
	require.NoError(t, err)
	require.NotNil(t, logger)

	logger, err = NewLogger(false, NewScrubber(NewScanner()))
	require.NoError(t, err)
	require.NotNil(t, logger)
}
