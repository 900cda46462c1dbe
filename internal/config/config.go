// Package config loads and saves the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/utils"
)

// ICSConfig describes a single ICS subscription merged as an imported source.
type ICSConfig struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// GoogleConfig selects the Google calendars imported through the backend.
type GoogleConfig struct {
	CalendarIDs []string `yaml:"calendar_ids" json:"calendar_ids"`
	// CMUCalCalendarIDs are calendars that hold CMUCal exports.
	CMUCalCalendarIDs []string `yaml:"cmucal_calendar_ids" json:"cmucal_calendar_ids"`
}

type NotifyConfig struct {
	WebhookURL    string `yaml:"webhook_url,omitempty" json:"webhook_url,omitempty"`
	WebhookSecret string `yaml:"webhook_secret,omitempty" json:"webhook_secret,omitempty"`
}

type Config struct {
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// UserID is the Clerk user id. The OS keyring takes precedence.
	UserID string `yaml:"user_id,omitempty" json:"user_id,omitempty"`

	// Storage is a file path (.db for SQLite, .json for a JSON file) or a
	// PostgreSQL URL without a password.
	Storage string `yaml:"storage" json:"storage"`

	// Schedule is the last selected schedule id.
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`

	Google GoogleConfig `yaml:"google" json:"google"`
	ICS    []ICSConfig  `yaml:"ics" json:"ics"`
	Notify NotifyConfig `yaml:"notify,omitempty" json:"notify,omitempty"`

	// RefreshCron drives `cmucal watch`.
	RefreshCron string `yaml:"refresh" json:"refresh"`
	HorizonDays int    `yaml:"horizon_days" json:"horizon_days"`
	Timezone    string `yaml:"timezone,omitempty" json:"timezone,omitempty"`
	Debug       bool   `yaml:"debug" json:"debug"`
}

func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:  constants.DefaultAPIBaseURL,
		Storage:     constants.DefaultStoragePath,
		ICS:         []ICSConfig{},
		RefreshCron: constants.DefaultRefreshCron,
		HorizonDays: constants.DefaultHorizonDays,
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = constants.DefaultAPIBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.Storage == "" {
		c.Storage = constants.DefaultStoragePath
	}
	if c.RefreshCron == "" {
		c.RefreshCron = constants.DefaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = constants.DefaultHorizonDays
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = fmt.Sprintf("ics-%d", i+1)
		}
	}
}

// Validate rejects values that would fail later at use.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", c.RefreshCron, err)
	}
	seen := make(map[string]bool, len(c.ICS))
	for _, f := range c.ICS {
		if f.URL == "" {
			return fmt.Errorf("ics feed %q has no url", f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate ics feed id %q", f.ID)
		}
		seen[f.ID] = true
	}
	if c.Timezone != "" {
		if !utils.ValidateTimezone(c.Timezone) {
			return fmt.Errorf("invalid timezone %q", c.Timezone)
		}
	}
	return nil
}

// ApplyEnv overrides file values with CMUCAL_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(constants.EnvAPIURL); v != "" {
		c.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(constants.EnvUserID); v != "" {
		c.UserID = v
	}
	if v := os.Getenv(constants.EnvDBConnection); v != "" {
		c.Storage = v
	}
}

// Load reads path, creating it with defaults on first run.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}
	path = ExpandHome(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes cfg atomically with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	path = ExpandHome(path)
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: temp file in the same directory then rename.
	tmp, err := os.CreateTemp(dir, ".cmucal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// ExpandHome replaces a leading ~ with the user's home directory. Other
// values, including connection URLs, are returned unchanged.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Location returns the configured display zone, the system zone by default.
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}
