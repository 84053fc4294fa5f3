// Package config handles loading application configuration from environment
// variables and an optional config file. All config is centralized here so no
// other package reads env vars directly. Sensible defaults are provided so the
// app runs with zero setup next to a roadmap.xlsx.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration. Populated once at startup and
// passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 5000).
	Port int

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// Workbook holds the spreadsheet document settings.
	Workbook WorkbookConfig

	// Changelog holds the flat change log settings.
	Changelog ChangelogConfig

	// Charts holds defaults for the chart views.
	Charts ChartsConfig

	// TrustedProxies lists the CIDRs whose X-Real-IP / X-Forwarded-For
	// headers are believed when logging the client address.
	TrustedProxies []string
}

// WorkbookConfig locates the spreadsheet that stores goals and relationships.
type WorkbookConfig struct {
	// Path is the .xlsx file (default: "roadmap.xlsx"). Created on first use.
	Path string
}

// ChangelogConfig locates the CSV change log shown on the landing page.
type ChangelogConfig struct {
	// Path is the CSV file (default: "changelog.csv").
	Path string

	// RecordChanges appends an entry for every goal or link mutation.
	RecordChanges bool
}

// ChartsConfig holds chart view defaults.
type ChartsConfig struct {
	// SankeyHeight is the Sankey height in pixels when ?h= is absent.
	SankeyHeight int
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"env":                      "ENV",
	"port":                     "PORT",
	"log_level":                "LOG_LEVEL",
	"workbook.path":            "KOKO_ROADMAP_XLSX",
	"changelog.path":           "KOKO_ROADMAP_CHANGELOG",
	"changelog.record_changes": "KOKO_ROADMAP_RECORD_CHANGES",
	"charts.sankey_height":     "KOKO_ROADMAP_SANKEY_HEIGHT",
	"trusted_proxies":          "TRUSTED_PROXIES",
}

// defaultTrustedProxies covers loopback and the private LAN ranges.
const defaultTrustedProxies = "127.0.0.0/8,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,fd00::/8"

// Load reads configuration with precedence env > config file > defaults.
// configFile is optional; when set it must exist and parse.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("env", "development")
	v.SetDefault("port", 5000)
	v.SetDefault("log_level", "debug")
	v.SetDefault("workbook.path", "roadmap.xlsx")
	v.SetDefault("changelog.path", "changelog.csv")
	v.SetDefault("changelog.record_changes", true)
	v.SetDefault("charts.sankey_height", 900)
	v.SetDefault("trusted_proxies", defaultTrustedProxies)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	cfg := &Config{
		Env:      v.GetString("env"),
		Port:     v.GetInt("port"),
		LogLevel: v.GetString("log_level"),
		Workbook: WorkbookConfig{
			Path: strings.TrimSpace(v.GetString("workbook.path")),
		},
		Changelog: ChangelogConfig{
			Path:          strings.TrimSpace(v.GetString("changelog.path")),
			RecordChanges: v.GetBool("changelog.record_changes"),
		},
		Charts: ChartsConfig{
			SankeyHeight: v.GetInt("charts.sankey_height"),
		},
		TrustedProxies: splitList(v.GetStringSlice("trusted_proxies")),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.Workbook.Path == "" {
		return nil, fmt.Errorf("KOKO_ROADMAP_XLSX must not be empty")
	}
	if cfg.Changelog.Path == "" {
		return nil, fmt.Errorf("KOKO_ROADMAP_CHANGELOG must not be empty")
	}
	if cfg.Charts.SankeyHeight <= 0 {
		cfg.Charts.SankeyHeight = 900
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// Level converts LogLevel to a slog level. Unknown values fall back to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitList accepts both a config-file list and a comma-separated env value.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
