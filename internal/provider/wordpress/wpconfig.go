package wordpress

import (
	"fmt"
	"os"
	"regexp"

	"github.com/wptools/wp-backup/internal/config"
)

// wp-config.php declares credentials through define() calls. Only the
// four database constants are read; everything else in the file is
// ignored.
var defineRe = regexp.MustCompile(`define\(\s*['"](DB_NAME|DB_USER|DB_PASSWORD|DB_HOST)['"]\s*,\s*['"]([^'"]*)['"]\s*\)`)

// ParseWPConfig extracts database credentials from a wp-config.php
// file. DB_HOST defaults to localhost when absent; the other constants
// are required except DB_PASSWORD, which may legitimately be empty.
func ParseWPConfig(path string) (*config.DatabaseCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wp-config: %w", err)
	}

	found := map[string]string{}
	for _, m := range defineRe.FindAllStringSubmatch(string(data), -1) {
		if _, dup := found[m[1]]; !dup {
			found[m[1]] = m[2]
		}
	}

	creds := &config.DatabaseCredentials{
		Host:     found["DB_HOST"],
		Name:     found["DB_NAME"],
		User:     found["DB_USER"],
		Password: found["DB_PASSWORD"],
	}
	if creds.Host == "" {
		creds.Host = "localhost"
	}
	if creds.Name == "" || creds.User == "" {
		return nil, fmt.Errorf("wp-config at %s is missing DB_NAME or DB_USER", path)
	}
	return creds, nil
}
