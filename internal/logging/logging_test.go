package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Run("should honour the configured level", func(t *testing.T) {
		logger, err := New(Config{Level: "warn", Format: "json"})
		require.NoError(t, err)
		defer logger.Sync() //nolint:errcheck

		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("should default to info", func(t *testing.T) {
		logger, err := New(Config{})
		require.NoError(t, err)

		assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("should reject unknown levels and formats", func(t *testing.T) {
		_, err := New(Config{Level: "verbose"})
		assert.Error(t, err)

		_, err = New(Config{Format: "xml"})
		assert.Error(t, err)
	})
}
