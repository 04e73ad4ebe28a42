//go:build !unix

package twalk

import "os"

// No inode based hardlink detection off unix.
type fileIdentity struct{}

func getFileIdentity(os.FileInfo) (fileIdentity, bool) {
	return fileIdentity{}, false
}
