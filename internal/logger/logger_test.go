package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"samguk-server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNewProductionWritesSampledJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(&config.Config{Env: "production", LogLevel: "INFO", LogOutputPath: path})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))

	for i := 0; i < 150; i++ {
		log.Warn("narrative provider timeout")
	}
	_ = log.Sync()

	lines := readLines(t, path)
	assert.Len(t, lines, 100, "repeated messages are sampled after the first 100")
	assert.Contains(t, lines[0], `"level":"WARN"`)
	assert.Contains(t, lines[0], `"timestamp"`)
	assert.Contains(t, lines[0], `"service":"samguk-server"`)
	assert.Contains(t, lines[0], `"env":"production"`)
	assert.NotContains(t, lines[0], `"caller"`)
}

func TestNewDevelopmentUsesConsoleWithoutSampling(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.log")

	log, err := New(&config.Config{Env: "development", LogLevel: "debug", LogOutputPath: path})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	for i := 0; i < 150; i++ {
		log.Debug("turn resolved")
	}
	_ = log.Sync()

	lines := readLines(t, path)
	assert.Len(t, lines, 150)
	assert.False(t, strings.HasPrefix(lines[0], "{"), "development output is console encoded")
	assert.Contains(t, lines[0], "DEBUG")
	assert.Contains(t, lines[0], "logger_test.go", "caller is enabled in development")
}

func TestNewExplicitEncodingWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.json")

	log, err := New(&config.Config{Env: "development", LogLevel: "info", LogEncoding: "json", LogOutputPath: path})
	require.NoError(t, err)
	log.Info("turn resolved")
	_ = log.Sync()

	lines := readLines(t, path)
	assert.True(t, strings.HasPrefix(lines[0], "{"))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(&config.Config{Env: "production", LogLevel: "verbose"})
	assert.ErrorContains(t, err, "LOG_LEVEL")
}
