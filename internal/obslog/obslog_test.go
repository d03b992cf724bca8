package obslog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.log")
	logger, err := Init(Options{Level: "debug", Format: "json", ToFile: true, File: path})
	require.NoError(t, err)
	t.Cleanup(func() { Set(nil) })

	logger.Info("message_in")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "message_in")
	require.Same(t, logger, L())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zapcore.WarnLevel, parseLevel("WARNING"))
	require.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestSetNilRestoresNop(t *testing.T) {
	Set(nil)
	require.NotNil(t, L())
	require.False(t, L().Core().Enabled(zapcore.ErrorLevel))
}
