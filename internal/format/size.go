// Package format renders values for console display.
package format

import (
	"fmt"
	"os"
)

// Size renders a byte count as a human-readable string.
func Size(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FileSize returns the human-readable size of a file, or "unknown" when
// the file cannot be stated.
func FileSize(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return Size(info.Size())
}
