package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const sampleConfig = `# tuneDitto configuration

[scan]
# Extensions to pick up, matched without regard to case.
extensions = [".mp3", ".flac", ".wav", ".ogg", ".m4a", ".m4p"]
skip_hidden = true
# Size limits like "100K" or "2GiB". Empty means no limit.
min_size = ""
max_size = ""

[player]
# Program used for playback; the file path is appended. Leave empty to
# use the first of ffplay, mpv, afplay or paplay found on PATH.
command = []

[cache]
enabled = true
dir = "~/.cache/tuneditto"

[logging]
file = "~/.cache/tuneditto/tuneditto.log"
level = "info"

[ui]
# "tui" for the full screen interface, "plain" for the console.
mode = "tui"
`

// CreateSample writes a commented configuration with the default values
// to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
