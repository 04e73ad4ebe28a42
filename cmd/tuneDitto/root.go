package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strings"

	"github.com/jdefrancesco/tuneDitto/internal/config"
	"github.com/jdefrancesco/tuneDitto/internal/console"
	"github.com/jdefrancesco/tuneDitto/internal/player"
	"github.com/jdefrancesco/tuneDitto/internal/session"
	"github.com/jdefrancesco/tuneDitto/internal/tcache"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/tmap"
	"github.com/jdefrancesco/tuneDitto/internal/twalk"
	"github.com/jdefrancesco/tuneDitto/internal/ui"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// options are the command line flags. Empty values leave the config
// file's setting alone.
type options struct {
	path       string
	configPath string
	uiMode     string
	logLevel   string
	jsonOut    string
	csvOut     string
	cpuProfile string
	list       bool
	noCache    bool
	noBanner   bool
	version    bool
}

func newRootCommand() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "tuneDitto [flags] [PATH]",
		Short:         "Find and review duplicate songs in a music library",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if cmd.Flags().Changed("path") {
					return errors.New("give the library either as --path or as an argument, not both")
				}
				opts.path = args[0]
			}
			return run(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.path, "path", "p", ".", "Music library to scan")
	flags.StringVar(&opts.uiMode, "ui", "", "Front end: tui or plain")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.jsonOut, "json", "", "Write the duplicate groups to a JSON file")
	flags.StringVar(&opts.csvOut, "csv", "", "Write the duplicate groups to a CSV file")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write CPU profile to disk for analysis.")
	flags.BoolVar(&opts.list, "list", false, "Print the duplicate groups and exit")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Read every tag from disk and skip the tag cache")
	flags.BoolVar(&opts.noBanner, "no-banner", false, "Do not show the tuneDitto banner.")
	flags.BoolVar(&opts.version, "version", false, "Display version")

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newConfigCommand(&opts.configPath))
	return rootCmd
}

// applyOverrides puts command line flags on top of the loaded config.
func applyOverrides(cfg *config.Config, opts options) error {
	if opts.uiMode != "" {
		cfg.UI.Mode = opts.uiMode
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Normalize(); err != nil {
		return err
	}
	return cfg.Validate()
}

// interactive reports whether we can run a review session. Without a
// terminal on both ends we can only print.
func interactive() bool {
	isTerm := func(fd uintptr) bool { return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) }
	return isTerm(os.Stdin.Fd()) && isTerm(os.Stdout.Fd())
}

func run(ctx context.Context, opts options) error {
	if opts.version {
		showVersion()
		return nil
	}

	cfg, cfgPath, cfgExists, err := config.Load(strings.TrimSpace(opts.configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyOverrides(cfg, opts); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	tlog.InitializeTlogger(cfg.Logging.File)
	if err := tlog.SetLevel(cfg.Logging.Level); err != nil {
		return err
	}
	log := tlog.Tlogger.WithField("run", uuid.NewString())
	log.WithFields(logrus.Fields{"config": cfgPath, "exists": cfgExists}).Info("Logger initialized")

	root, err := libraryRoot(opts.path)
	if err != nil {
		return err
	}

	if !opts.noBanner {
		showHeader()
	}

	if opts.cpuProfile != "" {
		// #nosec G304
		f, err := os.Create(opts.cpuProfile)
		if err != nil {
			return fmt.Errorf("cpuprofile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("cpuprofile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	lock, err := tcache.Lock(cfg.Cache.Dir, root)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.Warnf("Releasing %s: %v", lock.Path(), err)
		}
	}()

	var cache *tcache.Cache
	if cfg.Cache.Enabled {
		cache, err = tcache.Open(cfg.Cache.Dir, root)
		if err != nil {
			// The cache only saves time. Scan without it.
			log.Warnf("Tag cache unavailable: %v", err)
			pterm.Warning.Println("Tag cache unavailable, reading every file.")
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	fmt.Println("[+] Press CTRL+C to stop tuneDitto at any time.")

	files, stats, err := scanLibrary(ctx, root, cfg.Scan, cache)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"files":      stats.Files,
		"tag_errors": stats.TagErrors,
		"cache_hits": stats.CacheHits,
	}).Info("Scan finished")

	twalk.SortByPath(files)
	groups := tmap.GroupFiles(files)
	log.Infof("Found %d duplicate groups", len(groups))

	if len(groups) == 0 {
		pterm.Success.Println("No duplicates found!")
		return nil
	}
	pterm.Success.Printfln("Found %s duplicate groups, %s could be reclaimed",
		pterm.LightWhite(len(groups)), pterm.LightWhite(tfile.FormatSize(tmap.DeletableBytes(groups))))

	report := tmap.NewReport(root, len(files), groups)
	if opts.jsonOut != "" {
		if err := report.WriteJSON(opts.jsonOut); err != nil {
			return err
		}
		pterm.Info.Printfln("Wrote %s", opts.jsonOut)
	}
	if opts.csvOut != "" {
		if err := report.WriteCSV(opts.csvOut); err != nil {
			return err
		}
		pterm.Info.Printfln("Wrote %s", opts.csvOut)
	}

	if opts.list || !interactive() {
		return report.WriteTable(os.Stdout)
	}
	if opts.jsonOut != "" || opts.csvOut != "" {
		return nil
	}

	return review(ctx, log, cfg, root, groups, cache)
}

// libraryRoot checks the library path names a directory and makes it
// absolute.
func libraryRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("music library %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("music library %s is not a directory", path)
	}
	return abs, nil
}

// review runs the interactive session and prints what it cost.
func review(ctx context.Context, log *logrus.Entry, cfg *config.Config, root string, groups []*tmap.Group, cache *tcache.Cache) error {
	var pl session.Player
	proc, err := player.New(cfg.Player.Command)
	if err != nil {
		log.Warnf("Playback disabled: %v", err)
		pterm.Warning.Printfln("Playback disabled: %v", err)
		pl = silentPlayer{err: err}
	} else {
		log.Infof("Playing with %v", proc.Command())
		pl = proc
	}

	remover := newRemover(ctx, log, cache)

	var ctrl *session.Controller
	switch cfg.UI.Mode {
	case config.UIModePlain:
		ctrl = session.New(groups, pl, console.Confirm{}, remover)
		err = ctrl.Run(ctx, console.Keyboard{}, console.NewScreen(os.Stdout, true))
	default:
		ctrl, err = ui.LaunchTUI(groups, pl, remover)
	}
	if err != nil {
		return err
	}

	deleted, reclaimed := ctrl.Deleted()
	log.Infof("Session over: deleted %d files, reclaimed %d bytes", deleted, reclaimed)
	pterm.Success.Printfln("Deleted %s file(s), reclaimed %s",
		pterm.LightWhite(deleted), pterm.LightWhite(tfile.FormatSize(reclaimed)))

	if info, err := tfile.DescribeFilesystem(root); err == nil {
		pterm.Info.Println(info.String())
	} else {
		log.Debugf("Filesystem info: %v", err)
	}
	return nil
}

// newRemover deletes files for the session and drops them from the tag
// cache. A file that is gone or unreadable is refused so a stale row
// doesn't count as reclaimed space.
func newRemover(ctx context.Context, log *logrus.Entry, cache *tcache.Cache) session.RemoveFunc {
	return func(path string) error {
		if !tfile.CheckFilePerms(path) {
			log.Errorf("Refusing to delete %s: missing or unreadable", path)
			return fmt.Errorf("%s is missing or unreadable", filepath.Base(path))
		}
		size := tfile.GetFileSize(path)

		if err := os.Remove(path); err != nil {
			log.Errorf("Deleting %s: %v", path, err)
			return err
		}
		log.Infof("Deleted %s (%d bytes)", path, size)
		if cache != nil {
			if err := cache.Invalidate(ctx, path); err != nil {
				log.Warnf("Dropping %s from tag cache: %v", path, err)
			}
		}
		return nil
	}
}

// silentPlayer stands in when no playback program is installed. Every
// play reports why.
type silentPlayer struct {
	err error
}

func (p silentPlayer) Play(string) error { return p.err }
func (silentPlayer) Stop()               {}
