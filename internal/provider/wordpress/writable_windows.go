//go:build windows

package wordpress

import "os"

// dirWritable reports whether path is a directory. Windows ACLs are
// not expressible through permission bits; a real write failure
// surfaces when the run creates the backup directory.
func dirWritable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
