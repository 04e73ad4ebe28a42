// Package config loads tuneDitto settings from TOML. Command line flags
// are applied on top by main.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/jdefrancesco/tuneDitto/internal/tags"
	"github.com/jdefrancesco/tuneDitto/pkg/utils"
)

const (
	defaultConfigPath = "~/.config/tuneditto/config.toml"
	projectConfigName = "tuneditto.toml"

	UIModeTUI   = "tui"
	UIModePlain = "plain"
)

// Scan controls which files the walker picks up.
type Scan struct {
	// Extensions, with the leading dot. Matching ignores case.
	Extensions []string `toml:"extensions"`
	// SkipHidden controls whether hidden dotfiles and directories are skipped.
	SkipHidden bool `toml:"skip_hidden"`
	// Human readable size limits such as "100K" or "2GiB". Empty disables.
	MinSize string `toml:"min_size"`
	MaxSize string `toml:"max_size"`

	// Parsed from MinSize and MaxSize.
	MinFileSize uint64 `toml:"-"`
	MaxFileSize uint64 `toml:"-"`
}

// Player picks the external program used for playback.
type Player struct {
	// Command is the argv to run; the file path is appended. Empty means
	// autodetect.
	Command []string `toml:"command"`
}

// Cache configures the tag cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Logging configures the log file.
type Logging struct {
	File  string `toml:"file"`
	Level string `toml:"level"`
}

// UI picks the front end.
type UI struct {
	// Mode is "tui" for the full screen interface or "plain" for the
	// line oriented console.
	Mode string `toml:"mode"`
}

type Config struct {
	Scan    Scan    `toml:"scan"`
	Player  Player  `toml:"player"`
	Cache   Cache   `toml:"cache"`
	Logging Logging `toml:"logging"`
	UI      UI      `toml:"ui"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Scan: Scan{
			Extensions: append([]string(nil), tags.DefaultExtensions...),
			SkipHidden: true,
		},
		Cache: Cache{
			Enabled: true,
			Dir:     "~/.cache/tuneditto",
		},
		Logging: Logging{
			File:  "~/.cache/tuneditto/tuneditto.log",
			Level: "info",
		},
		UI: UI{Mode: UIModeTUI},
	}
}

// DefaultConfigPath returns the absolute path of the default config file.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. An explicit
// path that doesn't exist is not an error; defaults are used. It returns
// the config, the path it resolved, and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		// #nosec G304
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.Normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Normalize expands paths, lower-cases enum values, and parses size
// strings. Call it again after changing fields by hand.
func (c *Config) Normalize() error {
	var err error

	exts := c.Scan.Extensions[:0]
	for _, ext := range c.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Scan.Extensions = exts

	if c.Scan.MinFileSize, err = parseOptionalSize(c.Scan.MinSize); err != nil {
		return fmt.Errorf("scan.min_size: %w", err)
	}
	if c.Scan.MaxFileSize, err = parseOptionalSize(c.Scan.MaxSize); err != nil {
		return fmt.Errorf("scan.max_size: %w", err)
	}

	if c.Cache.Dir, err = expandPath(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.UI.Mode = strings.ToLower(strings.TrimSpace(c.UI.Mode))
	return nil
}

func parseOptionalSize(s string) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return utils.ParseSize(s)
}

// Validate checks values that would only fail later and more confusingly.
func (c *Config) Validate() error {
	if len(c.Scan.Extensions) == 0 {
		return errors.New("scan.extensions must list at least one extension")
	}
	if c.Scan.MaxFileSize > 0 && c.Scan.MinFileSize >= c.Scan.MaxFileSize {
		return fmt.Errorf("scan.min_size (%s) must be below scan.max_size (%s)", c.Scan.MinSize, c.Scan.MaxSize)
	}
	switch c.UI.Mode {
	case UIModeTUI, UIModePlain:
	default:
		return fmt.Errorf("ui.mode must be %q or %q, got %q", UIModeTUI, UIModePlain, c.UI.Mode)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return errors.New("cache.dir is required when the cache is enabled")
	}
	if c.Logging.File == "" {
		return errors.New("logging.file is required")
	}
	for i, arg := range c.Player.Command {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("player.command[%d] is empty", i)
		}
	}
	return nil
}

// ExpandPath resolves "~" and makes p absolute. Empty stays empty.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
