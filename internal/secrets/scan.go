package secrets

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Finding is one suspicious line located by ScanFiles.
type Finding struct {
	File    string
	Line    int
	Excerpt string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d - possible hardcoded secret: %s", f.File, f.Line, f.Excerpt)
}

// Assignment patterns that indicate a secret committed to source.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password\s*[:=]\s*["'][^"']{3,}["']`),
	regexp.MustCompile(`(?i)secret\s*[:=]\s*["'][^"']{10,}["']`),
	regexp.MustCompile(`(?i)api[_-]?key\s*[:=]\s*["'][^"']{10,}["']`),
	regexp.MustCompile(`(?i)token\s*[:=]\s*["'][^"']{10,}["']`),
	// Real email addresses
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
}

// Known safe patterns that would otherwise trip the scan.
var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)example\.com`),
	regexp.MustCompile(`(?i)your-.*\.com`),
	regexp.MustCompile(`(?i)help[:=]`),
	regexp.MustCompile(`(?i)description[:=]`),
	regexp.MustCompile(`(?i)prompt[:=]`),
	regexp.MustCompile(`os\.Getenv`),
	regexp.MustCompile(`MYSQL_PWD`),
}

const excerptLimit = 50

// ScanFiles checks each file's lines for hardcoded-secret patterns and
// returns one finding per matching line. Missing files are skipped;
// comment lines and lines matching the ignore list are not reported.
func ScanFiles(paths []string) []Finding {
	var findings []Finding

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}

		scanner := bufio.NewScanner(f)
		lineNo := 0
		for scanner.Scan() {
			lineNo++
			line := scanner.Text()
			trimmed := strings.TrimSpace(line)

			if trimmed == "" || isComment(trimmed) {
				continue
			}
			if matchesAny(ignorePatterns, line) {
				continue
			}
			if matchesAny(suspiciousPatterns, line) {
				findings = append(findings, Finding{
					File:    path,
					Line:    lineNo,
					Excerpt: truncate(trimmed, excerptLimit),
				})
			}
		}
		f.Close()
	}

	return findings
}

func isComment(line string) bool {
	return strings.HasPrefix(line, "//") ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "*") ||
		strings.HasPrefix(line, "/*")
}

func matchesAny(patterns []*regexp.Regexp, line string) bool {
	for _, p := range patterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
