package validation

import (
	"fmt"
	"os"
	"runtime"

	"github.com/wptools/wp-backup/internal/config"
)

// Environment variables that should not be set process-wide.
var sensitiveEnvVars = []string{
	"DB_PASSWORD",
	"GDRIVE_CLIENT_SECRET",
	"API_KEY",
	"AWS_SECRET_ACCESS_KEY",
}

// CheckEnvironment flags world-readable sensitive files and sensitive
// environment variables set globally. Permission checks only apply
// where POSIX bits are meaningful; on Windows they are skipped.
func CheckEnvironment() []string {
	var issues []string

	sensitiveFiles := []string{
		".env",
		".env.local",
		config.DefaultCredentialsFile,
		config.TokenFile(),
	}

	if runtime.GOOS != "windows" {
		for _, path := range sensitiveFiles {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.Mode().Perm()&0o044 != 0 {
				issues = append(issues, fmt.Sprintf("File %s is readable by others", path))
			}
		}
	}

	for _, name := range sensitiveEnvVars {
		if _, set := os.LookupEnv(name); set {
			issues = append(issues, fmt.Sprintf("Sensitive environment variable %s is set globally", name))
		}
	}

	return issues
}
