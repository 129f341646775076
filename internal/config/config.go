// Package config provides configuration types and loading for wp-backup.
package config

// Environment tags accepted by Config.Environment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Storage provider names accepted by StorageConfig.Provider.
const (
	ProviderGDrive = "gdrive"
	ProviderS3     = "s3"
)

// WordPressConfig describes the backup source site.
type WordPressConfig struct {
	// Domain identifies the site; used in archive names.
	Domain string `validate:"required"`
	// Path is the WordPress installation root.
	Path string `validate:"required"`
	// BackupDir is the scratch parent directory for per-run working
	// directories. Everything under it is temporary.
	BackupDir string `validate:"required"`
}

// StorageConfig describes the upload destination.
type StorageConfig struct {
	// Provider selects the storage sink implementation.
	Provider string `validate:"required,oneof=gdrive s3"`
	// Folder is the destination folder name (Drive) or key prefix
	// component (S3).
	Folder string `validate:"required"`
	// CredentialsFile is the OAuth client secrets JSON for Drive.
	CredentialsFile string
	// RetentionDays is the age threshold for remote cleanup.
	RetentionDays int `validate:"min=1,max=365"`

	// S3-only settings.
	S3Bucket string
	S3Region string
	S3Prefix string
}

// SharingConfig describes access grants applied after upload.
type SharingConfig struct {
	Emails     []string `validate:"dive,email"`
	Role       string   `validate:"omitempty,oneof=reader writer"`
	MakePublic bool
}

// DatabaseCredentials is an explicit database override. When absent the
// source provider extracts credentials from wp-config.php instead.
type DatabaseCredentials struct {
	Host     string `validate:"required"`
	Name     string `validate:"required"`
	User     string `validate:"required"`
	Password string
}

// Config is the full application configuration. It is assembled once by
// the Loader and treated as immutable afterwards.
type Config struct {
	WordPress   WordPressConfig      `validate:"required"`
	Storage     StorageConfig        `validate:"required"`
	Sharing     SharingConfig
	Database    *DatabaseCredentials `validate:"omitempty"`
	Environment string               `validate:"required,oneof=development staging production"`
}
