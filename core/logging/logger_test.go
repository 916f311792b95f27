package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogging(t *testing.T) {
	tests := []struct {
		name string
		mode string
	}{
		{name: "Test_InitLogging_test_mode_OK", mode: "test"},
		{name: "Test_InitLogging_development_mode_OK", mode: "development"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogging(tt.mode, t.TempDir())
			require.NotNil(t, Logger)
			require.NotNil(t, GetMemLogger())
		})
	}
}

func TestInitLogging_WritesRotatedFile(t *testing.T) {
	dir := t.TempDir()
	InitLogging("development", dir)
	defer func() { Logger = zap.NewNop() }()

	Logger.Info("hello", zap.String("component", "store"))
	_ = Logger.Sync()

	raw, err := os.ReadFile(filepath.Join(dir, LogFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hello")
	assert.Len(t, GetMemLogger().GetLogs(), 1)
}

func Test_getEncoder(t *testing.T) {
	t.Parallel()

	cfgUnknown := zap.NewProductionConfig()
	cfgUnknown.Encoding = ""
	cfgJSON := zap.NewProductionConfig()
	cfgConsole := zap.NewProductionConfig()
	cfgConsole.Encoding = "console"

	tests := []struct {
		name      string
		conf      zap.Config
		wantPanic bool
	}{
		{name: "Test_getEncoder_Panic", conf: cfgUnknown, wantPanic: true},
		{name: "Test_getEncoder_JSON_OK", conf: cfgJSON},
		{name: "Test_getEncoder_Console_OK", conf: cfgConsole},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.wantPanic {
				assert.Panics(t, func() { getEncoder(tt.conf) })
				return
			}
			assert.NotNil(t, getEncoder(tt.conf))
		})
	}
}

func TestMemLogger_KeepsEntriesInOrder(t *testing.T) {
	cfg := zap.NewProductionConfig()
	ml := NewMemLogger(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.DebugLevel)
	l := zap.New(ml.GetCore()).With(zap.String("component", "store"))

	l.Debug("first")
	l.Info("second", zap.Int("count", 2))

	logs := ml.GetLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
	assert.Len(t, logs[1].Context, 2)

	var buf bytes.Buffer
	ml.WriteLogs(&buf, IncludeFields)
	assert.Contains(t, buf.String(), "second")
	assert.Contains(t, buf.String(), "count")
}

func TestMemLogger_RingOverwritesOldest(t *testing.T) {
	cfg := zap.NewProductionConfig()
	ml := NewMemLogger(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.InfoLevel)
	l := zap.New(ml.GetCore())
	for i := 0; i < BufferSize+10; i++ {
		l.Info("entry", zap.Int("i", i))
	}
	l.Debug("filtered")
	logs := ml.GetLogs()
	require.Len(t, logs, BufferSize)
	assert.Equal(t, int64(10), logs[0].Context[0].Integer)
	assert.Equal(t, int64(BufferSize+9), logs[len(logs)-1].Context[0].Integer)
}
