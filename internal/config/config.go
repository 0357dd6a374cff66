// Package config assembles process configuration in three layers:
// compiled defaults, an optional config.json5 (plus config.local.json5)
// overlay, then environment overrides. Env wins, matching how the
// deployment has always been driven.
package config

import (
	"log/slog"
	"os"
	"strconv"

	"winamax-scraper/lib/configutil"
	"winamax-scraper/lib/limits"

	"dario.cat/mergo"
)

type WatchdogConfig struct {
	// ServerURL is the status probe of the supervised process.
	ServerURL string `json:"server_url"`
	// ServerPort is probed as a fallback when no process matches the
	// launch signature (a zombie may still hold the listener).
	ServerPort int `json:"server_port"`
	// ServerCommand is the launch signature: argv used both to spawn the
	// target and to find stray instances of it.
	ServerCommand []string `json:"server_command"`
	StatusPort    int      `json:"status_port"`
	CheckIntervalMinutes int `json:"check_interval_minutes"`
	MaxRestartsPerHour   int `json:"max_restarts_per_hour"`
}

type Config struct {
	Port     int    `json:"port"`
	Database string `json:"database"`

	MinPointsFilter         float64  `json:"min_points_filter"`
	CheckDuplicates         bool     `json:"check_duplicates"`
	PreventParallelRuns     bool     `json:"prevent_parallel_runs"`
	ScrapingIntervalMinutes int      `json:"scraping_interval_minutes"`
	ActiveLimits            []string `json:"active_limits"`
	LimitsFile              string   `json:"limits_file"`
	WhitelistFile           string   `json:"whitelist_file"`
	RetentionDays           int      `json:"retention_days"`

	// ScraperMode selects the page extractor: "browser" (headless
	// chromium) or "static" (plain HTTP fetch).
	ScraperMode string `json:"scraper_mode"`
	UserAgent   string `json:"user_agent"`

	LogLevel string `json:"log_level"`

	Watchdog WatchdogConfig `json:"watchdog"`
}

func Default() Config {
	return Config{
		Port:                    3000,
		Database:                "winamax.db",
		MinPointsFilter:         5,
		CheckDuplicates:         true,
		PreventParallelRuns:     true,
		ScrapingIntervalMinutes: 10,
		ActiveLimits:            []string{"16-25", "50", "100"},
		LimitsFile:              "limits.txt",
		WhitelistFile:           "whitelist.txt",
		RetentionDays:           30,
		ScraperMode:             "browser",
		UserAgent:               "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		LogLevel:                "info",
		Watchdog: WatchdogConfig{
			ServerURL:            "http://localhost:3000/api/status",
			ServerPort:           3000,
			ServerCommand:        []string{"./server"},
			StatusPort:           3001,
			CheckIntervalMinutes: 3,
			MaxRestartsPerHour:   5,
		},
	}
}

// Load builds the effective configuration. A missing config file is
// fine; a malformed one is fatal to the caller.
func Load() (Config, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if os.IsNotExist(err) {
		cfg = Config{}
	} else if err != nil {
		return Config{}, err
	}

	// fill whatever the file left unset with the defaults
	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays the recognized environment options. A malformed
// value is a config error, not a fatal one: warn and keep the previous
// value.
func (c *Config) applyEnv() {
	envString("LOG_LEVEL", &c.LogLevel)
	envString("DATABASE_PATH", &c.Database)
	envString("USER_AGENT", &c.UserAgent)
	envString("SCRAPER_MODE", &c.ScraperMode)
	envString("WATCHDOG_SERVER_URL", &c.Watchdog.ServerURL)

	envInt("PORT", &c.Port)
	envInt("SCRAPING_INTERVAL_MINUTES", &c.ScrapingIntervalMinutes)
	envInt("LOG_RETENTION_DAYS", &c.RetentionDays)
	envInt("WATCHDOG_CHECK_INTERVAL_MINUTES", &c.Watchdog.CheckIntervalMinutes)
	envInt("WATCHDOG_MAX_RESTARTS", &c.Watchdog.MaxRestartsPerHour)

	envFloat("MIN_POINTS_FILTER", &c.MinPointsFilter)

	envBool("CHECK_DUPLICATES", &c.CheckDuplicates)
	envBool("PREVENT_PARALLEL_RUNS", &c.PreventParallelRuns)

	if raw, ok := os.LookupEnv("ACTIVE_LIMITS"); ok {
		ids := limits.ParseIDs(raw)
		if len(ids) == 0 {
			slog.Warn("ACTIVE_LIMITS is set but empty, keeping previous value", "raw", raw)
		} else {
			c.ActiveLimits = ids
		}
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("malformed integer env var, keeping previous value", "key", key, "raw", raw)
		return
	}
	*dst = v
}

func envFloat(key string, dst *float64) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("malformed float env var, keeping previous value", "key", key, "raw", raw)
		return
	}
	*dst = v
}

func envBool(key string, dst *bool) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("malformed boolean env var, keeping previous value", "key", key, "raw", raw)
		return
	}
	*dst = v
}
