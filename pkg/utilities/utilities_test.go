package utilities

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewSnowflakeIDUniqueAndOrdered(t *testing.T) {
	const n = 2000
	seen := make(map[string]bool, n)
	var prev int64
	for i := 0; i < n; i++ {
		id := NewSnowflakeID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
		v, err := strconv.ParseInt(id, 10, 64)
		require.NoError(t, err)
		assert.Greater(t, v, prev)
		prev = v
	}
}

func TestNewKSUID(t *testing.T) {
	id := NewKSUID()
	_, err := ksuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewKSUID())
}

func TestNodeIDFromEnv(t *testing.T) {
	t.Setenv("SNOWFLAKE_NODE", "")
	assert.EqualValues(t, 1, nodeIDFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "42")
	assert.EqualValues(t, 42, nodeIDFromEnv())
	t.Setenv("SNOWFLAKE_NODE", "forty-two")
	assert.EqualValues(t, 1, nodeIDFromEnv())
}

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	assert.Equal(t, zapcore.ErrorLevel, levelFromString("error"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("verbose"))
}

func TestLoggerConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "")
	t.Setenv("LOG_MAX_AGE", "48h")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Dev)
	assert.Equal(t, "debug", cfg.Level)
	assert.Equal(t, 48*time.Hour, cfg.MaxAge)

	t.Setenv("LOG_DEV", "")
	t.Setenv("LOG_MAX_AGE", "")
	cfg = ConfigFromEnv()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, 7*24*time.Hour, cfg.MaxAge)
}

func TestInitWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "readiness.log")
	logger, err := Init(Config{Level: "info", File: file})
	require.NoError(t, err)
	logger.Sugar().Infow("import finished", "op", "import", "saved", 3)
	logger.Debug("hidden")
	_ = logger.Sync()

	segment := file + "." + time.Now().Format("20060102")
	body, err := os.ReadFile(segment)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `"msg":"import finished"`)
	assert.Contains(t, text, `"op":"import"`)
	assert.False(t, strings.Contains(text, "hidden"))
}

func TestInitDevelopment(t *testing.T) {
	logger, err := Init(Config{Level: "debug", Dev: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}
