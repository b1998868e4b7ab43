package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfigureLevels(t *testing.T) {
	defer func() {
		cfg := Config{Level: "info", Format: "console"}
		require.NoError(t, cfg.Configure())
	}()

	cfg := Config{Level: "warn", Format: "console"}
	require.NoError(t, cfg.Configure())
	require.False(t, DebugEnabled)
	require.False(t, logger.Core().Enabled(zap.InfoLevel))
	require.True(t, logger.Core().Enabled(zap.WarnLevel))

	cfg = Config{Level: "debug", Format: "json"}
	require.NoError(t, cfg.Configure())
	require.True(t, DebugEnabled)

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)
	Named("agg").Debugf("named %s", "logger")
}

func TestConfigureInvalid(t *testing.T) {
	cfg := Config{Level: "verbose", Format: "console"}
	require.Error(t, cfg.Configure())

	cfg = Config{Level: "info", Format: "xml"}
	err := cfg.Configure()
	require.Error(t, err)
	require.Equal(t, "log-format must be one of 'console' or 'json'", err.Error())
}
