package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateLoggerWithLumberjackWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "powerstationd.log")

	logger := CreateLoggerWithLumberjack(logFile, 1, zap.InfoLevel)
	require.NotNil(t, logger)

	logger.Info("test message")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "test message")
}

func TestInitWithFilePathRoutesToLumberjack(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "powerstationd.log")

	require.NoError(t, Init("info", false, logFile, 1))
	Logger.Info("routed message")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "routed message")
}

func TestInitWithoutFilePathRejectsBadLevel(t *testing.T) {
	err := Init("not-a-level", false, "", 0)
	assert.Error(t, err)
}
