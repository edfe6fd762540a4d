package logger

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func stripANSI(str string) string {
	return regexp.MustCompile(`\x1b\[[0-9;]*m`).ReplaceAllString(str, "")
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{-1, zapcore.WarnLevel},
		{0, zapcore.WarnLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
		{7, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(0, OutputResults))
	assert.False(t, ShouldOutput(0, OutputProgress))
	assert.True(t, ShouldOutput(1, OutputProgress))
	assert.False(t, ShouldOutput(2, OutputLayout))
	assert.True(t, ShouldOutput(3, OutputLayout))
	assert.Equal(t, "Debug (-vv)", LevelName(2))
}

func TestShows(t *testing.T) {
	defer func() { Logger, Verbosity = zap.NewNop().Sugar(), 0 }()

	assert.True(t, Shows(OutputResults))
	assert.False(t, Shows(OutputSources))

	require.NoError(t, Initialize(false, 3))
	assert.Equal(t, 3, Verbosity)
	assert.True(t, Shows(OutputLayout))
	assert.True(t, Shows(OutputConfig))
}

func TestInitialize(t *testing.T) {
	defer func() { Logger, Verbosity = zap.NewNop().Sugar(), 0 }()

	require.NoError(t, Initialize(false, 1))
	assert.False(t, JSONOutput)
	assert.True(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Initialize(true, 0))
	assert.True(t, JSONOutput)
	assert.False(t, Logger.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestMinimalEncoderKeepsEveryField(t *testing.T) {
	enc := newMinimalEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.WarnLevel,
		Time:       time.Date(2024, 1, 1, 13, 4, 35, 0, time.UTC),
		LoggerName: "compiler",
		Message:    "format pass failed",
	}
	fields := []zapcore.Field{
		zap.String(FieldDialect, "common"),
		zap.Int(FieldCount, 220),
		zap.Bool("trimmed", true),
		zap.Float64("ratio", 0.5),
		zap.Error(errors.New("gofmt: bad syntax")),
		zap.Error(nil),
		zap.Duration("took", 1500*time.Millisecond),
	}

	buf, err := enc.EncodeEntry(entry, fields)
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.Contains(t, out, "13:04:35")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "compiler")
	assert.Contains(t, out, "format pass failed")
	assert.Contains(t, out, "dialect=common")
	assert.Contains(t, out, "count=220")
	assert.Contains(t, out, "trimmed=true")
	assert.Contains(t, out, "ratio=0.5")
	assert.Contains(t, out, "error=gofmt: bad syntax")
	assert.Contains(t, out, "took=1.5s")
}

func TestMinimalEncoderWithFields(t *testing.T) {
	enc := newMinimalEncoder()
	enc.AddString(FieldDialect, "ardupilotmega")
	clone := enc.Clone()

	buf, err := clone.EncodeEntry(zapcore.Entry{Level: zapcore.InfoLevel, Message: "planned"}, []zapcore.Field{zap.Int("messages", 3)})
	require.NoError(t, err)
	out := stripANSI(buf.String())

	assert.NotContains(t, out, "INFO")
	assert.Contains(t, out, "dialect=ardupilotmega")
	assert.Contains(t, out, "messages=3")
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("everforest")

	SetTheme("gruvbox")
	assert.Equal(t, gruvbox, colors())
	SetTheme("solarized")
	assert.Equal(t, gruvbox, colors(), "unknown themes are ignored")
	SetTheme("everforest")
	assert.Equal(t, everforest, colors())
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := zap.NewExample().Sugar()
	assert.Same(t, l, OrNop(l))
}
