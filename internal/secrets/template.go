package secrets

import (
	"fmt"
	"os"
	"strings"
)

// TemplateKey describes one entry of a generated env template.
type TemplateKey struct {
	Key         string
	Description string
}

// WriteEnvTemplate writes a commented KEY= template to path with 0600
// permissions so a fresh install starts from a safe skeleton.
func WriteEnvTemplate(path string, keys []TemplateKey) error {
	var b strings.Builder
	b.WriteString("# Local configuration file - DO NOT COMMIT TO VERSION CONTROL\n")
	b.WriteString("# Copy this file to .env.local and fill in your values\n\n")

	for _, k := range keys {
		fmt.Fprintf(&b, "# %s\n%s=\n\n", k.Description, k.Key)
	}

	return os.WriteFile(path, []byte(b.String()), 0600)
}
