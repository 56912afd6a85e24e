package configuration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfiguration tests the configuration package basic functionality
func TestConfiguration(t *testing.T) {
	t.Run("configuration_struct_exists", func(t *testing.T) {
		require.NotNil(t, &C, "Configuration should not be nil")
		require.NotNil(t, &C.App, "App configuration should exist")
		require.NotNil(t, &C.Database, "Database configuration should exist")
	})

	t.Run("scheduler_defaults_applied", func(t *testing.T) {
		// init() ran LoadConfig + initScheduler; without a config file every
		// timing knob must hold its default.
		require.Equal(t, 12*time.Hour, C.Scheduler.TokenRefreshInterval)
		require.Equal(t, 6*time.Hour, C.Scheduler.TokenRefreshLookahead)
		require.Equal(t, time.Minute, C.Scheduler.PublishInterval)
		require.Equal(t, 2*time.Second, C.Scheduler.PollInitialInterval)
		require.Equal(t, 30*time.Second, C.Scheduler.PollMaxInterval)
		require.Equal(t, 10*time.Minute, C.Scheduler.PollTimeout)
		require.EqualValues(t, 4, C.Scheduler.MaxInFlight)
	})

	t.Run("platform_config_resolution", func(t *testing.T) {
		t.Setenv("TIKTOK_CLIENT_KEY", "tk-id")
		t.Setenv("TIKTOK_CLIENT_SECRET", "tk-secret")
		cfg := GetTikTokConfig()
		require.Equal(t, "tk-id", cfg.ClientID)
		require.Equal(t, "tk-secret", cfg.ClientSecret)
		require.True(t, cfg.Configured())
	})
}
