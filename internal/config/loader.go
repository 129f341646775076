package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wptools/wp-backup/internal/secrets"
)

// Defaults applied when a key resolves to nothing.
const (
	DefaultCredentialsFile = "config/gdrive-credentials.json"
	DefaultRetentionDays   = 7
	DefaultShareRole       = "writer"
)

// DefaultBackupDir returns the default scratch parent directory.
func DefaultBackupDir() string {
	return filepath.Join(os.TempDir(), "wp-backup")
}

// Loader assembles a Config from the secret resolver's sources. It does
// not validate beyond type conversion; run the full validator on the
// returned Config before using it.
type Loader struct {
	Secrets *secrets.Resolver
}

// NewLoader returns a Loader reading through the given resolver.
func NewLoader(r *secrets.Resolver) *Loader {
	return &Loader{Secrets: r}
}

// Load builds a Config. When configFile is non-empty it is consulted
// before the default env files (but still after the process
// environment).
func (l *Loader) Load(configFile string) (*Config, error) {
	resolver := l.Secrets
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configFile, err)
		}
		// Work on a copy so the shared resolver keeps its source list.
		prioritized := *resolver
		prioritized.EnvFiles = append([]string{configFile}, resolver.EnvFiles...)
		resolver = &prioritized
	}

	cfg := &Config{}

	if err := l.loadWordPress(resolver, cfg); err != nil {
		return nil, err
	}
	if err := l.loadStorage(resolver, cfg); err != nil {
		return nil, err
	}
	l.loadSharing(resolver, cfg)
	l.loadDatabase(resolver, cfg)

	cfg.Environment = resolver.Get("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = EnvProduction
	}

	return cfg, nil
}

func (l *Loader) loadWordPress(r *secrets.Resolver, cfg *Config) error {
	domain := r.GetPrompt("WP_DOMAIN", "Enter WordPress domain (e.g., mysite.com)")
	if domain == "" {
		return fmt.Errorf("WordPress domain is required (set WP_DOMAIN)")
	}

	path := r.GetPrompt("WP_PATH", "Enter WordPress installation path (e.g., /var/www/mysite.com)")
	if path == "" {
		return fmt.Errorf("WordPress path is required (set WP_PATH)")
	}

	backupDir := r.Get("BACKUP_DIR")
	if backupDir == "" {
		backupDir = DefaultBackupDir()
	}

	cfg.WordPress = WordPressConfig{
		Domain:    domain,
		Path:      path,
		BackupDir: backupDir,
	}
	return nil
}

func (l *Loader) loadStorage(r *secrets.Resolver, cfg *Config) error {
	provider := r.Get("STORAGE_PROVIDER")
	if provider == "" {
		provider = ProviderGDrive
	}

	folder := r.GetPrompt("GDRIVE_FOLDER", "Enter storage folder name (e.g., backup/mysite.com)")
	if folder == "" {
		return fmt.Errorf("storage folder is required (set GDRIVE_FOLDER)")
	}

	credentialsFile := r.Get("GDRIVE_CREDENTIALS_FILE")
	if credentialsFile == "" {
		credentialsFile = DefaultCredentialsFile
	}

	retention := DefaultRetentionDays
	if raw := r.Get("RETENTION_DAYS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("RETENTION_DAYS must be an integer, got %q", raw)
		}
		retention = parsed
	}

	cfg.Storage = StorageConfig{
		Provider:        provider,
		Folder:          folder,
		CredentialsFile: credentialsFile,
		RetentionDays:   retention,
		S3Bucket:        r.Get("S3_BUCKET"),
		S3Region:        r.Get("S3_REGION"),
		S3Prefix:        r.Get("S3_PREFIX"),
	}
	return nil
}

func (l *Loader) loadSharing(r *secrets.Resolver, cfg *Config) {
	var emails []string
	seen := make(map[string]bool)
	for _, email := range strings.Split(r.Get("SHARE_EMAILS"), ",") {
		email = strings.TrimSpace(email)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		emails = append(emails, email)
	}

	role := r.Get("SHARE_ROLE")
	if role == "" {
		role = DefaultShareRole
	}

	makePublic := strings.ToLower(r.Get("MAKE_PUBLIC"))

	cfg.Sharing = SharingConfig{
		Emails:     emails,
		Role:       role,
		MakePublic: makePublic == "true" || makePublic == "1" || makePublic == "yes",
	}
}

// loadDatabase fills the optional credential override. All of host, name
// and user must resolve; otherwise credentials are extracted from
// wp-config.php at authentication time. Password may be empty.
func (l *Loader) loadDatabase(r *secrets.Resolver, cfg *Config) {
	host := r.Get("DB_HOST")
	name := r.Get("DB_NAME")
	user := r.Get("DB_USER")
	if host == "" || name == "" || user == "" {
		return
	}

	cfg.Database = &DatabaseCredentials{
		Host:     host,
		Name:     name,
		User:     user,
		Password: r.Get("DB_PASSWORD"),
	}
}

// TemplateKeys lists the env keys written by the init command.
func TemplateKeys() []secrets.TemplateKey {
	return []secrets.TemplateKey{
		{Key: "WP_DOMAIN", Description: "WordPress domain (e.g., mysite.com)"},
		{Key: "WP_PATH", Description: "WordPress installation path (e.g., /var/www/mysite.com)"},
		{Key: "BACKUP_DIR", Description: "Temporary backup directory (optional, default: " + DefaultBackupDir() + ")"},
		{Key: "STORAGE_PROVIDER", Description: "Storage sink: gdrive or s3 (default: gdrive)"},
		{Key: "GDRIVE_FOLDER", Description: "Storage backup folder (e.g., backup/mysite.com)"},
		{Key: "GDRIVE_CREDENTIALS_FILE", Description: "OAuth credentials file (default: " + DefaultCredentialsFile + ")"},
		{Key: "S3_BUCKET", Description: "S3 bucket name (s3 provider only)"},
		{Key: "S3_REGION", Description: "S3 region (s3 provider only)"},
		{Key: "S3_PREFIX", Description: "S3 key prefix (optional, s3 provider only)"},
		{Key: "RETENTION_DAYS", Description: "Days to retain backups (default: 7)"},
		{Key: "SHARE_EMAILS", Description: "Comma-separated emails to share with (optional)"},
		{Key: "SHARE_ROLE", Description: "Sharing role: reader or writer (default: writer)"},
		{Key: "MAKE_PUBLIC", Description: "Make backup folder public: true or false (default: false)"},
		{Key: "ENVIRONMENT", Description: "Environment: development, staging, or production (default: production)"},
		{Key: "DB_HOST", Description: "Database host override (optional)"},
		{Key: "DB_NAME", Description: "Database name override (optional)"},
		{Key: "DB_USER", Description: "Database user override (optional)"},
		{Key: "DB_PASSWORD", Description: "Database password override (optional)"},
	}
}
