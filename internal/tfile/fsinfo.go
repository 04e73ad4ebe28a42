// Utility functions for querying information about the files and the
// filesystem a library lives on.
package tfile

import (
	"fmt"
	"os"
	"path/filepath"

	sigar "github.com/cloudfoundry/gosigar"
)

// FSInfo is what we report about the filesystem holding a library root.
type FSInfo struct {
	Type  string
	Total uint64
	Avail uint64
}

// String renders the info the way we print it in the session summary.
func (f FSInfo) String() string {
	return fmt.Sprintf("%s, %s free of %s", f.Type, formatSize(f.Avail), formatSize(f.Total))
}

// DescribeFilesystem returns the type and usage of the filesystem that
// contains path. Sizes are in bytes.
func DescribeFilesystem(path string) (FSInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FSInfo{}, err
	}

	fsType, err := detectFilesystem(abs)
	if err != nil {
		fsType = "unknown"
	}

	usage := sigar.FileSystemUsage{}
	if err := usage.Get(abs); err != nil {
		return FSInfo{Type: fsType}, fmt.Errorf("filesystem usage for %s: %w", abs, err)
	}

	// sigar reports KiB.
	return FSInfo{
		Type:  fsType,
		Total: usage.Total * 1024,
		Avail: usage.Avail * 1024,
	}, nil
}

// formatSize will make our sizes more human friendly
func formatSize(size uint64) string {
	return sigar.FormatSize(size)
}

// FormatSize is formatSize for the signed sizes we keep on records.
// Negative sizes print as zero.
func FormatSize(size int64) string {
	return formatSize(uint64(max(size, 0))) // #nosec G115
}

// GetFileSize returns the size of a file, or 0 if it cannot be stat'd.
func GetFileSize(path string) uint64 {
	if path == "" {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return uint64(max(info.Size(), 0)) // #nosec G115
}

// Check if we have proper permissions for reading a file. Performs
// various safety checks to prevent any file path vulnerabilities.
func CheckFilePerms(path string) bool {
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	// #nosec G304
	file, err := os.Open(absPath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}
