//go:build !windows

package diskspace

import (
	"path/filepath"
	"syscall"
)

// availableSpace stats the filesystem of the directory containing path.
// Bavail counts blocks available to unprivileged users.
func availableSpace(path string) int64 {
	dir := filepath.Dir(path)

	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0
	}

	return int64(stat.Bavail) * int64(stat.Bsize)
}
