package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "eventdash/internal/log"
)

// Defaults applied by Normalize.
const (
	DefaultTimezone       = "UTC"
	DefaultScanSchedule   = "@every 60s"
	DefaultWarningDays    = 7
	DefaultLogLevel       = "info"
	DefaultHorizonDays    = 90
	DefaultMaxAttendees   = 50
	defaultConfigFileMode = 0o600
)

// Config is the top-level application configuration. Every field can be
// overridden by the EVENTDASH_* variable named in its env tag.
type Config struct {
	// Timezone is the IANA zone the scan schedule is interpreted in.
	Timezone string `yaml:"timezone" env:"EVENTDASH_TIMEZONE"`

	// ScanSchedule is a cron spec ("*/5 * * * *") or descriptor
	// ("@every 60s") for the expiry scan.
	ScanSchedule string `yaml:"scan_schedule" env:"EVENTDASH_SCAN_SCHEDULE"`

	// WarningDays is the expiring window: events with at most this many
	// days left get a warning.
	WarningDays int `yaml:"warning_days" env:"EVENTDASH_WARNING_DAYS"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"EVENTDASH_LOG_LEVEL"`

	// SeedFile, if set, is a YAML list of events loaded at startup.
	SeedFile string `yaml:"seed_file" env:"EVENTDASH_SEED_FILE"`

	// ICSImport lists .ics files whose VEVENTs are imported as events.
	ICSImport []string `yaml:"ics_import" env:"EVENTDASH_ICS_IMPORT" envSeparator:","`

	// ICSExport, if set, receives the event store as an .ics file on shutdown.
	ICSExport string `yaml:"ics_export" env:"EVENTDASH_ICS_EXPORT"`

	// ICSHorizonDays bounds recurring event expansion on import.
	ICSHorizonDays int `yaml:"ics_horizon_days" env:"EVENTDASH_ICS_HORIZON_DAYS"`

	// DefaultMaxAttendees is used for imported events without X-MAX-ATTENDEES.
	DefaultMaxAttendees int `yaml:"default_max_attendees" env:"EVENTDASH_DEFAULT_MAX_ATTENDEES"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	c.Timezone = strings.TrimSpace(c.Timezone)
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	c.ScanSchedule = strings.TrimSpace(c.ScanSchedule)
	if c.ScanSchedule == "" {
		c.ScanSchedule = DefaultScanSchedule
	}
	if c.WarningDays <= 0 {
		c.WarningDays = DefaultWarningDays
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ICSHorizonDays <= 0 {
		c.ICSHorizonDays = DefaultHorizonDays
	}
	if c.DefaultMaxAttendees <= 0 {
		c.DefaultMaxAttendees = DefaultMaxAttendees
	}
	if c.ICSImport == nil {
		c.ICSImport = []string{}
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	if _, err := cron.ParseStandard(c.ScanSchedule); err != nil {
		errs = append(errs, fmt.Errorf("scan_schedule %q: %w", c.ScanSchedule, err))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q: want debug, info, warn or error", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load loads configuration from the given YAML path, applies environment
// overrides and validates the result.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms (creating the parent directory) and used.
//   - If the file exists, it is unmarshaled and normalized.
//   - EVENTDASH_* variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		cfg = DefaultConfig()
		if err := Save(path, cfg); err != nil {
			return cfg, err
		}
		appLog.Info("default config written", "path", path)
	case err != nil:
		return nil, err
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides cfg fields from EVENTDASH_* variables. Unset variables
// leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Save writes the given configuration to path atomically (temp file in the
// same directory, then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventdash-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, defaultConfigFileMode); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
