//go:build !unix

package tmap

import (
	"fmt"
	"os"
)

func openFileSecure(absPath, _, _ string) (*os.File, error) {
	// #nosec G304
	f, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open report %s: %w", absPath, err)
	}
	return f, nil
}
