//go:build !windows

package wordpress

import "golang.org/x/sys/unix"

// dirWritable reports write access to path without touching it.
func dirWritable(path string) bool {
	return unix.Access(path, unix.W_OK) == nil
}
