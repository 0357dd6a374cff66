package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, float64(5), cfg.MinPointsFilter)
	require.True(t, cfg.CheckDuplicates)
	require.True(t, cfg.PreventParallelRuns)
	require.Equal(t, 10, cfg.ScrapingIntervalMinutes)
	require.Equal(t, []string{"16-25", "50", "100"}, cfg.ActiveLimits)
	require.Equal(t, 5, cfg.Watchdog.MaxRestartsPerHour)
}

func TestFileOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	err := os.WriteFile("config.json5", []byte(`{
		// operator overrides
		port: 8080,
		scraping_interval_minutes: 5,
		active_limits: ["250", "500"],
	}`), 0o644)
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 5, cfg.ScrapingIntervalMinutes)
	require.Equal(t, []string{"250", "500"}, cfg.ActiveLimits)
	// untouched fields still come from the defaults
	require.Equal(t, "winamax.db", cfg.Database)
	require.Equal(t, "browser", cfg.ScraperMode)
}

func TestEnvOverridesEverything(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "9999")
	t.Setenv("MIN_POINTS_FILTER", "12.5")
	t.Setenv("CHECK_DUPLICATES", "false")
	t.Setenv("ACTIVE_LIMITS", "50, 100,500")
	t.Setenv("SCRAPER_MODE", "static")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Port)
	require.Equal(t, 12.5, cfg.MinPointsFilter)
	require.False(t, cfg.CheckDuplicates)
	require.Equal(t, []string{"50", "100", "500"}, cfg.ActiveLimits)
	require.Equal(t, "static", cfg.ScraperMode)
}

func TestMalformedEnvKeepsPrevious(t *testing.T) {
	chdirTemp(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("MIN_POINTS_FILTER", "many")
	t.Setenv("CHECK_DUPLICATES", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3000, cfg.Port)
	require.Equal(t, float64(5), cfg.MinPointsFilter)
	require.True(t, cfg.CheckDuplicates)
}
