//go:build windows

package tfile

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

// detectFilesystem asks for the volume holding path. GetVolumeInformation
// wants the volume root, not an arbitrary directory.
func detectFilesystem(path string) (string, error) {
	root := filepath.VolumeName(path) + "\\"
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return "", err
	}

	var serial, maxComponent, flags uint32
	fsName := make([]uint16, windows.MAX_PATH+1)
	if err := windows.GetVolumeInformation(p, nil, 0, &serial, &maxComponent, &flags, &fsName[0], uint32(len(fsName))); err != nil {
		return "", err
	}
	return windows.UTF16ToString(fsName), nil
}
