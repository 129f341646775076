package validation

import (
	"strings"
	"testing"

	"github.com/wptools/wp-backup/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		WordPress: config.WordPressConfig{
			Domain:    "mysite.com",
			Path:      "/var/www/mysite.com",
			BackupDir: "/tmp/wp-backup",
		},
		Storage: config.StorageConfig{
			Provider:        config.ProviderGDrive,
			Folder:          "backup/mysite.com",
			CredentialsFile: "config/gdrive-credentials.json",
			RetentionDays:   7,
		},
		Sharing: config.SharingConfig{
			Emails: []string{"ops@mysite.com"},
			Role:   "reader",
		},
		Environment: config.EnvProduction,
	}
}

func TestValidateConfigAccepts(t *testing.T) {
	v := New()
	cfg := validConfig()

	if !v.ValidateConfig(cfg) {
		t.Fatalf("valid config rejected: %v", v.Report().Errors)
	}
}

func TestRetentionBounds(t *testing.T) {
	tests := []struct {
		days  int
		valid bool
	}{
		{0, false},
		{1, true},
		{7, true},
		{365, true},
		{366, false},
		{-1, false},
	}

	for _, tt := range tests {
		v := New()
		cfg := validConfig()
		cfg.Storage.RetentionDays = tt.days

		if got := v.ValidateConfig(cfg); got != tt.valid {
			t.Errorf("retention %d: valid = %v, want %v (%v)",
				tt.days, got, tt.valid, v.Report().Errors)
		}
	}
}

func TestPlaceholderDomainIsWarning(t *testing.T) {
	v := New()
	cfg := validConfig()
	cfg.WordPress.Domain = "example.com"

	if !v.ValidateConfig(cfg) {
		t.Fatalf("placeholder domain must not be an error: %v", v.Report().Errors)
	}

	report := v.Report()
	if len(report.Warnings) == 0 {
		t.Error("placeholder domain produced no warning")
	}
}

func TestInvalidDomainIsError(t *testing.T) {
	v := New()
	cfg := validConfig()
	cfg.WordPress.Domain = "not a domain"

	if v.ValidateConfig(cfg) {
		t.Fatal("invalid domain accepted")
	}
}

func TestUnsafePaths(t *testing.T) {
	paths := []string{
		"/var/www/../../etc/shadow",
		"/etc/wordpress",
		`C:\Windows\site`,
		"////",
		"/var/www/we|rd",
	}

	for _, p := range paths {
		v := New()
		cfg := validConfig()
		cfg.WordPress.Path = p

		if v.ValidateConfig(cfg) {
			t.Errorf("unsafe path accepted: %s", p)
		}
	}
}

func TestAllChecksRun(t *testing.T) {
	v := New()
	cfg := validConfig()
	cfg.WordPress.Domain = "not a domain"
	cfg.Storage.RetentionDays = 500
	cfg.Sharing.Emails = []string{"not-an-email"}

	if v.ValidateConfig(cfg) {
		t.Fatal("broken config accepted")
	}

	report := v.Report()
	if len(report.Errors) < 3 {
		t.Errorf("got %d errors, want at least 3 (no short-circuit): %v",
			len(report.Errors), report.Errors)
	}
}

func TestSharingValidation(t *testing.T) {
	v := New()
	cfg := validConfig()
	cfg.Sharing.Role = "owner"

	if v.ValidateConfig(cfg) {
		t.Fatal("invalid role accepted")
	}
	if !containsSubstring(v.Report().Errors, "sharing role") {
		t.Errorf("missing role error: %v", v.Report().Errors)
	}
}

func TestDatabaseValidation(t *testing.T) {
	tests := []struct {
		name  string
		db    config.DatabaseCredentials
		valid bool
		warns bool
	}{
		{
			name:  "valid",
			db:    config.DatabaseCredentials{Host: "localhost", Name: "wp_site", User: "wp"},
			valid: true,
		},
		{
			name:  "bad identifier",
			db:    config.DatabaseCredentials{Host: "localhost", Name: "wp;drop", User: "wp"},
			valid: false,
		},
		{
			name:  "missing user",
			db:    config.DatabaseCredentials{Host: "localhost", Name: "wp_site"},
			valid: false,
		},
		{
			name:  "odd host is a warning only",
			db:    config.DatabaseCredentials{Host: "db host!", Name: "wp_site", User: "wp"},
			valid: true,
			warns: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			cfg := validConfig()
			cfg.Database = &tt.db

			if got := v.ValidateConfig(cfg); got != tt.valid {
				t.Errorf("valid = %v, want %v (%v)", got, tt.valid, v.Report().Errors)
			}
			if tt.warns && len(v.Report().Warnings) == 0 {
				t.Error("expected a warning")
			}
		})
	}
}

func TestS3RequiresBucket(t *testing.T) {
	v := New()
	cfg := validConfig()
	cfg.Storage.Provider = config.ProviderS3
	cfg.Storage.S3Bucket = ""

	if v.ValidateConfig(cfg) {
		t.Fatal("s3 provider without bucket accepted")
	}
}

func TestMissingCredentialsFileIsWarning(t *testing.T) {
	v := New()
	cfg := validConfig()
	cfg.Storage.CredentialsFile = "/nonexistent/creds.json"

	if !v.ValidateConfig(cfg) {
		t.Fatalf("missing credentials file must be a warning: %v", v.Report().Errors)
	}
	if !containsSubstring(v.Report().Warnings, "credentials file not found") {
		t.Errorf("missing warning: %v", v.Report().Warnings)
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
