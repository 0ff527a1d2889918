package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	defaultWorkers         = 4
	defaultSinceDays       = 7
	defaultReviewThreshold = 0.4
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Registry string      `yaml:"registry"` // brand registry file or directory
	Database string      `yaml:"database"` // sqlite results database
	Inbox    InboxConfig `yaml:"inbox,omitempty"`
	Options  Options     `yaml:"options,omitempty"`
}

// InboxConfig holds IMAP settings for ingesting mail to classify
type InboxConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // "gmail", "outlook", "imap"
	Server   string `yaml:"server"`   // e.g., "imap.gmail.com"
	Port     int    `yaml:"port"`     // e.g., 993
	Email    string `yaml:"email"`    // Mailbox to read
	Password string `yaml:"password"` // App password (not main password)
	Folder   string `yaml:"folder"`   // Folder to read (default: "INBOX")
}

// Options holds batch-processing knobs
type Options struct {
	Workers         int     `yaml:"workers"`          // parallel classification workers
	SinceDays       int     `yaml:"since_days"`       // how far back the inbox fetch looks
	ReviewThreshold float64 `yaml:"review_threshold"` // below this overall confidence, flag for review
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".mailtally", "config.yaml")
}

func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mailtally.db"
	}
	return filepath.Join(home, ".mailtally", "mailtally.db")
}

func applyDefaults(cfg *Config) {
	if cfg.Registry == "" {
		cfg.Registry = "data/brands.yaml"
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabasePath()
	}
	if cfg.Options.Workers == 0 {
		cfg.Options.Workers = defaultWorkers
	}
	if cfg.Options.SinceDays == 0 {
		cfg.Options.SinceDays = defaultSinceDays
	}
	if cfg.Options.ReviewThreshold == 0 {
		cfg.Options.ReviewThreshold = defaultReviewThreshold
	}

	// Inbox defaults
	if cfg.Inbox.Folder == "" {
		cfg.Inbox.Folder = "INBOX"
	}
	if cfg.Inbox.Provider == "gmail" && cfg.Inbox.Server == "" {
		cfg.Inbox.Server = "imap.gmail.com"
		cfg.Inbox.Port = 993
	}
	if cfg.Inbox.Provider == "outlook" && cfg.Inbox.Server == "" {
		cfg.Inbox.Server = "outlook.office365.com"
		cfg.Inbox.Port = 993
	}
}

func Load(path string) (*Config, error) {
	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a config with all defaults applied, for running without a
// config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Registry == "" {
		return fmt.Errorf("registry: brand registry path is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database: results database path is required")
	}
	if c.Options.Workers < 1 {
		return fmt.Errorf("options: workers must be at least 1")
	}
	return nil
}

// ValidateInbox validates inbox configuration (only called when inbox ingestion is used)
func (c *Config) ValidateInbox() error {
	if !c.Inbox.Enabled {
		return fmt.Errorf("inbox: ingestion is not enabled in config")
	}
	if c.Inbox.Email == "" {
		return fmt.Errorf("inbox: email address is required")
	}
	if c.Inbox.Password == "" {
		return fmt.Errorf("inbox: password (app password) is required")
	}
	if c.Inbox.Server == "" {
		return fmt.Errorf("inbox: IMAP server is required")
	}
	if c.Inbox.Port == 0 {
		return fmt.Errorf("inbox: IMAP port is required")
	}
	return nil
}
