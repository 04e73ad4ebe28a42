//go:build !linux && !darwin && !freebsd && !windows

package tfile

import "errors"

func detectFilesystem(string) (string, error) {
	return "", errors.New("filesystem detection not supported on this OS")
}
