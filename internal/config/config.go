package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config is the root configuration for medrem, stored in ~/.medrem/config.json.
// The file supports single-line // comments for documentation purposes.
// Every setting can be overridden with a MEDREM_* environment variable,
// either exported or listed in a .env file in the working directory.
type Config struct {
	Client   ClientConfig   `json:"client"`
	Server   ServerConfig   `json:"server"`
	Reminder ReminderConfig `json:"reminder"`
}

// ClientConfig holds settings for talking to the record API.
type ClientConfig struct {
	// BaseURL is the root URL of the record API, without the /api suffix.
	BaseURL string `json:"base_url" env:"MEDREM_BASE_URL"`
	// TimeoutSeconds bounds a single API request.
	TimeoutSeconds int `json:"timeout_seconds" env:"MEDREM_TIMEOUT_SECONDS"`
	// NotifySeconds is how long a notification stays visible.
	NotifySeconds int `json:"notify_seconds" env:"MEDREM_NOTIFY_SECONDS"`
}

// ServerConfig holds settings for `medrem serve`.
type ServerConfig struct {
	Addr string `json:"addr" env:"MEDREM_LISTEN_ADDR"`
	// StoreDriver is "json" or "sqlite".
	StoreDriver string `json:"store_driver" env:"MEDREM_STORE_DRIVER"`
	// StorePath is the data file. Empty = ~/.medrem/medicine_data.<ext>.
	StorePath string `json:"store_path" env:"MEDREM_STORE_PATH"`
}

// ReminderConfig holds settings for `medrem remind`.
type ReminderConfig struct {
	// Schedule is a cron spec for how often taken times are checked.
	Schedule string `json:"schedule" env:"MEDREM_REMIND_SCHEDULE"`
}

const (
	DefaultBaseURL        = "http://127.0.0.1:5000"
	DefaultTimeoutSeconds = 10
	// DefaultNotifySeconds matches the toast lifetime of the web client.
	DefaultNotifySeconds = 3
	DefaultAddr          = "127.0.0.1:5000"
	DefaultStoreDriver   = "json"
	// DefaultSchedule checks every 20 seconds so no minute is missed.
	DefaultSchedule = "@every 20s"
)

// defaultConfig returns a Config pre-filled with sensible defaults.
func defaultConfig() Config {
	return Config{
		Client: ClientConfig{
			BaseURL:        DefaultBaseURL,
			TimeoutSeconds: DefaultTimeoutSeconds,
			NotifySeconds:  DefaultNotifySeconds,
		},
		Server: ServerConfig{
			Addr:        DefaultAddr,
			StoreDriver: DefaultStoreDriver,
		},
		Reminder: ReminderConfig{
			Schedule: DefaultSchedule,
		},
	}
}

// Timeout returns the request timeout as a duration.
func (c ClientConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NotifyDuration returns the notification lifetime as a duration.
func (c ClientConfig) NotifyDuration() time.Duration {
	return time.Duration(c.NotifySeconds) * time.Second
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// medrem configuration – ~/.medrem/config.json
//
// All settings are optional; the built-in defaults shown below talk to a
// server on this machine. Any value can also be set through the
// environment, e.g. MEDREM_BASE_URL=http://pi.local:5000.
{
  // ── Record API client ────────────────────────────────────────────────────
  "client": {
    // Root URL of the record API. Override with MEDREM_BASE_URL.
    "base_url": "http://127.0.0.1:5000",

    // Seconds before a single API request is abandoned.
    "timeout_seconds": 10,

    // Seconds a notification stays on screen in the interactive shell.
    "notify_seconds": 3
  },

  // ── medrem serve ─────────────────────────────────────────────────────────
  "server": {
    "addr": "127.0.0.1:5000",

    // "json" keeps records in a single JSON file, "sqlite" in a database.
    "store_driver": "json",

    // Leave empty to use ~/.medrem/medicine_data.json (or .db for sqlite).
    "store_path": ""
  },

  // ── medrem remind ────────────────────────────────────────────────────────
  "reminder": {
    // Cron spec controlling how often taken times are checked.
    "schedule": "@every 20s"
  }
}
`

// Dir returns the medrem data directory (~/.medrem).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".medrem"), nil
}

// configFilePath returns the path to ~/.medrem/config.json.
func configFilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.medrem/config.json, creating it with annotated defaults on
// first run, then applies a .env file from the working directory and the
// MEDREM_* environment on top.
func Load() (Config, error) {
	path, err := configFilePath()
	if err != nil {
		return defaultConfig(), err
	}

	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: could not read .env: %v\n", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads the config file at path. A missing file is created with the
// annotated template and yields the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
		return defaultConfig(), nil
	}
	if err != nil {
		return defaultConfig(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return defaultConfig(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	fillDefaults(&cfg)
	return cfg, nil
}

// ApplyEnv overrides cfg with any MEDREM_* variables present in the
// environment. Unset variables leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// fillDefaults fills zero-value fields with built-in defaults so callers
// always get a usable Config even if the user only partially fills in the file.
func fillDefaults(cfg *Config) {
	d := defaultConfig()
	if cfg.Client.BaseURL == "" {
		cfg.Client.BaseURL = d.Client.BaseURL
	}
	if cfg.Client.TimeoutSeconds <= 0 {
		cfg.Client.TimeoutSeconds = d.Client.TimeoutSeconds
	}
	if cfg.Client.NotifySeconds <= 0 {
		cfg.Client.NotifySeconds = d.Client.NotifySeconds
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = d.Server.Addr
	}
	if cfg.Server.StoreDriver == "" {
		cfg.Server.StoreDriver = d.Server.StoreDriver
	}
	if cfg.Reminder.Schedule == "" {
		cfg.Reminder.Schedule = d.Reminder.Schedule
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
