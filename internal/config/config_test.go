package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Registry != "data/brands.yaml" {
		t.Errorf("registry: got %q", cfg.Registry)
	}
	if cfg.Options.Workers != defaultWorkers {
		t.Errorf("workers: got %d, want %d", cfg.Options.Workers, defaultWorkers)
	}
	if cfg.Options.SinceDays != defaultSinceDays {
		t.Errorf("since_days: got %d, want %d", cfg.Options.SinceDays, defaultSinceDays)
	}
	if cfg.Options.ReviewThreshold != defaultReviewThreshold {
		t.Errorf("review_threshold: got %v, want %v", cfg.Options.ReviewThreshold, defaultReviewThreshold)
	}
	if cfg.Inbox.Folder != "INBOX" {
		t.Errorf("folder: got %q", cfg.Inbox.Folder)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
registry: /etc/mailtally/brands.yaml
inbox:
  enabled: true
  provider: gmail
  email: me@gmail.com
  password: app-password
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Registry != "/etc/mailtally/brands.yaml" {
		t.Errorf("registry: got %q", cfg.Registry)
	}
	if cfg.Database == "" {
		t.Error("database path should default")
	}
	if cfg.Inbox.Server != "imap.gmail.com" || cfg.Inbox.Port != 993 {
		t.Errorf("gmail provider should fill server defaults: %+v", cfg.Inbox)
	}
	if err := cfg.ValidateInbox(); err != nil {
		t.Errorf("inbox config should validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("registry: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := Default()
	cfg.Registry = "custom/brands.yaml"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config written with permissions %04o, want 0600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Registry != "custom/brands.yaml" {
		t.Errorf("registry: got %q", loaded.Registry)
	}
}

func TestValidateInbox(t *testing.T) {
	tests := []struct {
		name  string
		inbox InboxConfig
	}{
		{"disabled", InboxConfig{}},
		{"missing email", InboxConfig{Enabled: true, Server: "imap.example.com", Port: 993, Password: "x"}},
		{"missing password", InboxConfig{Enabled: true, Server: "imap.example.com", Port: 993, Email: "a@b.com"}},
		{"missing server", InboxConfig{Enabled: true, Port: 993, Email: "a@b.com", Password: "x"}},
		{"missing port", InboxConfig{Enabled: true, Server: "imap.example.com", Email: "a@b.com", Password: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Inbox = tt.inbox
			if err := cfg.ValidateInbox(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
