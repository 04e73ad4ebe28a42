//go:build unix

package twalk

import (
	"os"
	"syscall"
)

// fileIdentity is the device and inode pair behind a path.
type fileIdentity struct {
	dev uint64
	ino uint64
}

// getFileIdentity returns false if info doesn't carry a Stat_t.
func getFileIdentity(info os.FileInfo) (fileIdentity, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok || stat == nil {
		return fileIdentity{}, false
	}
	return fileIdentity{
		dev: uint64(stat.Dev), // #nosec G115
		ino: uint64(stat.Ino), // #nosec G115
	}, true
}
