package bootstrap_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/logger"
	"github.com/jcaisse/curated-content-portal-sub001/internal/bootstrap"
	"github.com/jcaisse/curated-content-portal-sub001/internal/config"
)

func TestNewCommandDeps(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("service:\n  version: \"1.2.3\"\n"), 0o600))

	deps, err := bootstrap.NewCommandDeps(path, true)
	require.NoError(t, err)
	require.NotNil(t, deps.Logger)

	assert.Equal(t, "1.2.3", deps.Config.Service.Version)
	assert.True(t, deps.Config.Service.Debug)
	assert.Equal(t, "debug", deps.Config.Logging.Level)
}

func TestNewCommandDeps_InvalidConfig(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("crawl:\n  schedule: \"not a cron\"\n"), 0o600))

	_, err := bootstrap.NewCommandDeps(path, false)
	require.Error(t, err)
}

func TestCreateLogger_RequiresConfig(t *testing.T) {
	_, err := bootstrap.CreateLogger(nil)
	require.Error(t, err)
}

func TestSetupRedis(t *testing.T) {
	log := logger.NewNop()

	t.Run("disabled", func(t *testing.T) {
		cfg := &config.Config{}
		assert.Nil(t, bootstrap.SetupRedis(cfg, log))
	})

	t.Run("enabled", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{}
		cfg.Redis.Enabled = true
		cfg.Redis.Address = mr.Addr()

		client := bootstrap.SetupRedis(cfg, log)
		require.NotNil(t, client)
		t.Cleanup(func() { _ = client.Close() })
	})
}
