package framework

import (
	"bytes"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for name, expected := range map[string]slog.Level{
		"":        slog.LevelInfo,
		"Debug":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		level, err := ParseLogLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, level, name)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}

func TestSetupLoggingWritesConsoleAndFile(t *testing.T) {
	previous := slog.Default()
	defer func() {
		slog.SetDefault(previous)
		log.Default().SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	}()

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "harness.log")
	closeLog, err := SetupLogging(LoggingConfig{Level: "warn", FilePath: path, Console: &console})
	require.NoError(t, err)

	slog.Info("only in the file")
	slog.Warn("everywhere")
	log.Println("from the standard logger")
	require.NoError(t, closeLog())

	assert.Contains(t, console.String(), "everywhere")
	assert.NotContains(t, console.String(), "only in the file")
	assert.NotContains(t, console.String(), "from the standard logger")

	file, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(file), "only in the file")
	assert.Contains(t, string(file), "everywhere")
	assert.Contains(t, string(file), "from the standard logger")
}

func TestSetupLoggingRejectsUnknownLevel(t *testing.T) {
	_, err := SetupLogging(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestLoggerWithPrefix(t *testing.T) {
	var captured CapturingLogger
	logger := LoggerWithPrefix(&captured, "[chain] ")
	logger.Printf("step %d", 1)
	logger.Println("done")

	output := captured.Output()
	require.Len(t, output, 2)
	assert.Equal(t, "[chain] step 1", output[0].Message)
	assert.Equal(t, "[chain]  done", output[1].Message)
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	SlogLogger(base, slog.LevelDebug).Printf("quiet %s", "message")
	assert.Empty(t, buf.String())

	SlogLogger(base, slog.LevelWarn).Println("loud", "message")
	assert.Contains(t, buf.String(), `msg="loud message"`)
	assert.Contains(t, buf.String(), "level=WARN")
}
