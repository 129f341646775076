package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wptools/wp-backup/internal/config"
)

// Placeholder values that indicate an unconfigured install.
var placeholderDomains = []string{"example.com", "localhost", "test.com"}

// Report is the outcome of a full config validation pass.
type Report struct {
	Errors   []string
	Warnings []string
	Valid    bool
}

// Validator validates a fully-assembled Config. Warnings never block;
// the config is valid iff zero errors accumulated.
type Validator struct {
	errors   []string
	warnings []string
	validate *validator.Validate
}

// New returns a ready Validator.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateConfig resets the report and runs every check. All sections
// are checked independently; one failure does not short-circuit the
// rest. Returns true iff no errors were recorded.
func (v *Validator) ValidateConfig(cfg *config.Config) bool {
	v.errors = v.errors[:0]
	v.warnings = v.warnings[:0]

	v.runTagChecks(cfg)
	v.checkWordPress(&cfg.WordPress)
	v.checkStorage(&cfg.Storage)
	if cfg.Database != nil {
		v.checkDatabase(cfg.Database)
	}

	return len(v.errors) == 0
}

// Report returns a copy of the accumulated errors and warnings.
func (v *Validator) Report() Report {
	return Report{
		Errors:   append([]string(nil), v.errors...),
		Warnings: append([]string(nil), v.warnings...),
		Valid:    len(v.errors) == 0,
	}
}

// runTagChecks collects every struct-tag violation (required fields,
// retention bounds, email shapes, role and environment enums).
func (v *Validator) runTagChecks(cfg *config.Config) {
	err := v.validate.Struct(cfg)
	if err == nil {
		return
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		v.errors = append(v.errors, err.Error())
		return
	}

	for _, fe := range fieldErrors {
		v.errors = append(v.errors, translateFieldError(fe))
	}
}

func translateFieldError(fe validator.FieldError) string {
	ns := fe.Namespace()
	switch {
	case strings.HasPrefix(ns, "Config.WordPress.Domain"):
		return "WordPress domain is required"
	case strings.HasPrefix(ns, "Config.WordPress.Path"):
		return "WordPress path is required"
	case strings.HasPrefix(ns, "Config.WordPress.BackupDir"):
		return "Backup directory is required"
	case strings.HasPrefix(ns, "Config.Storage.Provider"):
		return fmt.Sprintf("Invalid storage provider: %v. Must be 'gdrive' or 's3'", fe.Value())
	case strings.HasPrefix(ns, "Config.Storage.Folder"):
		return "Storage folder is required"
	case strings.HasPrefix(ns, "Config.Storage.RetentionDays"):
		return "Retention days must be between 1 and 365"
	case strings.HasPrefix(ns, "Config.Sharing.Emails"):
		return fmt.Sprintf("Invalid email format: %v", fe.Value())
	case strings.HasPrefix(ns, "Config.Sharing.Role"):
		return fmt.Sprintf("Invalid sharing role: %v. Must be 'reader' or 'writer'", fe.Value())
	case strings.HasPrefix(ns, "Config.Database.Host"):
		return "Database host is required"
	case strings.HasPrefix(ns, "Config.Database.Name"):
		return "Database name is required"
	case strings.HasPrefix(ns, "Config.Database.User"):
		return "Database user is required"
	case strings.HasPrefix(ns, "Config.Environment"):
		return fmt.Sprintf("Invalid environment: %v. Must be development, staging or production", fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", ns, fe.Tag())
	}
}

func (v *Validator) checkWordPress(wp *config.WordPressConfig) {
	if wp.Domain != "" {
		if !IsValidDomain(wp.Domain) {
			v.errors = append(v.errors, fmt.Sprintf("Invalid WordPress domain format: %s", wp.Domain))
		} else if isPlaceholderDomain(wp.Domain) {
			v.warnings = append(v.warnings, fmt.Sprintf("WordPress domain looks like a placeholder: %s", wp.Domain))
		}
	}

	if wp.Path != "" && !IsSafePath(wp.Path) {
		v.errors = append(v.errors, fmt.Sprintf("WordPress path appears unsafe: %s", wp.Path))
	}
	if wp.BackupDir != "" && !IsSafePath(wp.BackupDir) {
		v.errors = append(v.errors, fmt.Sprintf("Backup directory appears unsafe: %s", wp.BackupDir))
	}
}

func (v *Validator) checkStorage(st *config.StorageConfig) {
	if st.Folder != "" && !IsValidFolderName(st.Folder) {
		v.errors = append(v.errors, fmt.Sprintf("Invalid storage folder name: %s", st.Folder))
	}

	switch st.Provider {
	case config.ProviderGDrive:
		if st.CredentialsFile == "" {
			v.errors = append(v.errors, "Storage credentials file is required")
		} else if _, err := os.Stat(st.CredentialsFile); err != nil {
			// Deferred to authentication time; the grant flow prints
			// setup guidance when the file really is missing.
			v.warnings = append(v.warnings, fmt.Sprintf("Storage credentials file not found: %s", st.CredentialsFile))
		}
	case config.ProviderS3:
		if st.S3Bucket == "" {
			v.errors = append(v.errors, "S3 bucket is required when STORAGE_PROVIDER=s3")
		}
		if st.S3Region == "" {
			v.warnings = append(v.warnings, "S3 region not set; relying on the AWS default chain")
		}
	}
}

func (v *Validator) checkDatabase(db *config.DatabaseCredentials) {
	if db.Name != "" && !IsValidDatabaseName(db.Name) {
		v.errors = append(v.errors, fmt.Sprintf("Invalid database name format: %s", db.Name))
	}
	if db.Host != "" && !IsPlausibleDatabaseHost(db.Host) {
		v.warnings = append(v.warnings, fmt.Sprintf("Database host format might be invalid: %s", db.Host))
	}
}

func isPlaceholderDomain(domain string) bool {
	for _, p := range placeholderDomains {
		if domain == p {
			return true
		}
	}
	return false
}
