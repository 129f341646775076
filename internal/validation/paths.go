// Package validation validates configuration values and reports
// separate errors and warnings.
package validation

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidPathChars   = regexp.MustCompile(`[<>"|*?]`)
	onlySeparators     = regexp.MustCompile(`^[/\\]+$`)
	invalidFolderChars = []string{"<", ">", ":", `"`, "|", "?", "*"}
)

// Directories that must never be a backup source root or scratch area.
var criticalPaths = []string{
	"/bin", "/boot", "/dev", "/etc", "/lib", "/proc", "/root", "/sbin", "/sys",
	`c:\windows`, `c:\program files`, `c:\system32`,
}

// IsSafePath reports whether a configured path is acceptable: no
// traversal sequences, no characters invalid on any supported OS, and
// not resolving under a critical system directory.
func IsSafePath(path string) bool {
	if strings.Contains(path, "..") {
		return false
	}
	if invalidPathChars.MatchString(path) {
		return false
	}
	if onlySeparators.MatchString(path) {
		return false
	}

	normalized := strings.ToLower(filepath.Clean(path))
	// Clean keeps the platform separator; compare both forms so the
	// Windows entries match on any OS.
	slashed := strings.ReplaceAll(normalized, `\`, "/")
	for _, critical := range criticalPaths {
		criticalSlashed := strings.ReplaceAll(critical, `\`, "/")
		if slashed == criticalSlashed || strings.HasPrefix(slashed, criticalSlashed+"/") {
			return false
		}
	}

	return true
}

// IsValidFolderName reports whether a destination folder name is
// acceptable: non-empty after trimming, free of invalid characters, and
// not starting or ending with a space or dot.
func IsValidFolderName(folder string) bool {
	if strings.TrimSpace(folder) == "" {
		return false
	}

	for _, c := range invalidFolderChars {
		if strings.Contains(folder, c) {
			return false
		}
	}

	if strings.HasPrefix(folder, " ") || strings.HasPrefix(folder, ".") ||
		strings.HasSuffix(folder, " ") || strings.HasSuffix(folder, ".") {
		return false
	}

	return true
}

var dbNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_$]*$`)

// IsValidDatabaseName reports whether name follows MySQL identifier
// rules (max 64 chars).
func IsValidDatabaseName(name string) bool {
	return dbNamePattern.MatchString(name) && len(name) <= 64
}

var ipv4Pattern = regexp.MustCompile(`^(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// IsPlausibleDatabaseHost reports whether host looks like localhost, an
// IPv4 address, or a domain name.
func IsPlausibleDatabaseHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	if ipv4Pattern.MatchString(host) {
		return true
	}
	return domainPattern.MatchString(host)
}

var domainPattern = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// IsValidDomain reports whether domain has a hostname.tld shape.
func IsValidDomain(domain string) bool {
	return domainPattern.MatchString(domain)
}
