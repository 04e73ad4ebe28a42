// twalk is a parallel directory walker that finds audio files and reads
// their tags on the way.
package twalk

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/jdefrancesco/tuneDitto/internal/tags"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
)

// TagCache lets the walker skip tag parsing for files that haven't changed
// since the last run.
type TagCache interface {
	Lookup(ctx context.Context, path string, size int64, modified time.Time) (tfile.Tags, bool, error)
	Store(ctx context.Context, rec *tfile.Tfile) error
}

// Options controls which files the walker emits.
type Options struct {
	// Extensions to accept, with the leading dot. Matching ignores case.
	// Empty means tags.DefaultExtensions.
	Extensions []string
	// SkipHidden skips dotfiles and dot directories.
	SkipHidden bool
	// File size limits in bytes. Zero disables a limit.
	MinFileSize uint64
	MaxFileSize uint64
}

// Stats counts what happened during a walk.
type Stats struct {
	Files     int64
	TagErrors int64
	CacheHits int64
}

// TWalk is our primary object for traversing a library in parallel.
type TWalk struct {
	rootDirs []string
	wg       sync.WaitGroup

	// Channel used to hand records to the collecting goroutine in main.
	tFiles chan<- *tfile.Tfile
	sem    *semaphore.Weighted
	opts   Options
	exts   map[string]struct{}

	cache    TagCache
	readTags func(path string) (tfile.Tags, error)

	// Hardlinks to one inode are emitted once.
	seenMu sync.Mutex
	seen   map[fileIdentity]struct{}

	files     atomic.Int64
	tagErrors atomic.Int64
	cacheHits atomic.Int64
}

// NewTWalker returns a walker over rootDirs that sends every accepted file
// on tFiles. The channel is closed when the walk is done.
func NewTWalker(rootDirs []string, tFiles chan<- *tfile.Tfile, opts Options) *TWalk {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = tags.DefaultExtensions
	}

	walker := &TWalk{
		rootDirs: rootDirs,
		tFiles:   tFiles,
		opts:     opts,
		exts:     make(map[string]struct{}, len(exts)),
		readTags: tags.Read,
		seen:     make(map[fileIdentity]struct{}),
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		walker.exts[ext] = struct{}{}
	}

	concurrency := getOptimalConcurrency()
	tlog.Tlogger.Infof("Setting walker concurrency to %d (based on %d CPUs)", concurrency, runtime.NumCPU())
	walker.sem = semaphore.NewWeighted(int64(concurrency))
	return walker
}

// WithCache makes the walker consult and fill cache when reading tags.
func (d *TWalk) WithCache(cache TagCache) *TWalk {
	d.cache = cache
	return d
}

// Run kicks off the crawl. It returns immediately; records arrive on the
// channel given to NewTWalker.
func (d *TWalk) Run(ctx context.Context) {
	for _, root := range d.rootDirs {
		// Cache entries and records are keyed by absolute path.
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
		d.wg.Add(1)
		go d.walkDir(ctx, root)
	}

	go func() {
		d.wg.Wait()
		close(d.tFiles)
	}()
}

// Stats is only complete once the channel has been closed.
func (d *TWalk) Stats() Stats {
	return Stats{
		Files:     d.files.Load(),
		TagErrors: d.tagErrors.Load(),
		CacheHits: d.cacheHits.Load(),
	}
}

// cancelled polls, checking for cancellation.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// walkDir recursively walks directories and sends audio files to the
// collecting goroutine.
func (d *TWalk) walkDir(ctx context.Context, dir string) {
	defer d.wg.Done()

	if cancelled(ctx) {
		return
	}

	for _, entry := range d.dirEntries(ctx, dir) {
		name := entry.Name()
		if d.opts.SkipHidden && strings.HasPrefix(name, ".") {
			tlog.Tlogger.Debugf("Skipping hidden entry: %s", filepath.Join(dir, name))
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			d.wg.Add(1)
			go d.walkDir(ctx, path)
			continue
		}

		if _, ok := d.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			tlog.Tlogger.Debugf("Error getting file info for %s: %v", path, err)
			continue
		}

		// Skip non-regular files (sockets, pipes, symlinks, etc.)
		if !info.Mode().IsRegular() {
			tlog.Tlogger.Debugf("Skipping non-regular file: %s (mode: %s)", path, info.Mode())
			continue
		}

		size := uint64(max(info.Size(), 0)) // #nosec G115
		if d.opts.MinFileSize > 0 && size < d.opts.MinFileSize {
			tlog.Tlogger.Debugf("File %s smaller than minimum. Skipping", path)
			continue
		}
		if d.opts.MaxFileSize > 0 && size >= d.opts.MaxFileSize {
			tlog.Tlogger.Infof("File %s larger than maximum. Skipping", path)
			continue
		}

		if d.alreadySeen(info) {
			tlog.Tlogger.Debugf("Skipping hardlink to a file already scanned: %s", path)
			continue
		}

		t, fresh := d.tagsFor(ctx, path, info)
		rec, err := tfile.NewTfile(path, info.Size(), info.ModTime(), t)
		if err != nil {
			tlog.Tlogger.Warnf("Skipping %s: %v", path, err)
			continue
		}
		if fresh && d.cache != nil {
			if err := d.cache.Store(ctx, rec); err != nil {
				tlog.Tlogger.Warnf("Tag cache store failed for %s: %v", path, err)
			}
		}

		select {
		case d.tFiles <- rec:
			d.files.Add(1)
		case <-ctx.Done():
			return
		}
	}
}

// tagsFor returns the tags of path from the cache when it is fresh, and
// from the file otherwise. fresh reports a successful read from the file
// that the cache doesn't have yet. Read errors are logged and whatever was
// recovered is still used.
func (d *TWalk) tagsFor(ctx context.Context, path string, info os.FileInfo) (t tfile.Tags, fresh bool) {
	if d.cache != nil {
		t, ok, err := d.cache.Lookup(ctx, path, info.Size(), info.ModTime())
		if err != nil {
			tlog.Tlogger.Warnf("Tag cache lookup failed for %s: %v", path, err)
		}
		if ok {
			d.cacheHits.Add(1)
			return t, false
		}
	}

	// File opens share the directory semaphore so a wide tree can't
	// exhaust descriptors.
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return tfile.Tags{}, false
	}
	t, err := d.readTags(path)
	d.sem.Release(1)

	if err != nil {
		d.tagErrors.Add(1)
		tlog.Tlogger.Warnf("Reading tags of %s: %v", path, err)
		// Failed reads aren't cached so a fixed file is picked up next run.
		return t, false
	}
	return t, true
}

func (d *TWalk) alreadySeen(info os.FileInfo) bool {
	id, ok := getFileIdentity(info)
	if !ok {
		return false
	}

	d.seenMu.Lock()
	defer d.seenMu.Unlock()
	if _, dup := d.seen[id]; dup {
		return true
	}
	d.seen[id] = struct{}{}
	return false
}

// dirEntries returns contents of a directory specified by dir.
// The semaphore limits concurrency; preventing system resource
// exhaustion.
func (d *TWalk) dirEntries(ctx context.Context, dir string) []os.DirEntry {
	if cancelled(ctx) {
		return nil
	}

	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil
	}
	defer d.sem.Release(1)

	entries, err := os.ReadDir(dir)
	if err != nil {
		tlog.Tlogger.Errorf("Directory read error: %v", err)
		return nil
	}
	return entries
}

// getOptimalConcurrency returns optimal concurrency based on system resources
func getOptimalConcurrency() int {
	procs := runtime.GOMAXPROCS(0)
	if procs < 1 {
		procs = runtime.NumCPU()
	}
	concurrency := min(procs*4, 128)

	tlog.Tlogger.Debugf("Directory walker concurrency: %d (procs=%d)", concurrency, procs)
	return concurrency
}

// SortByPath orders records by path so grouping sees the same order for
// the same tree no matter how the goroutines interleaved.
func SortByPath(files []*tfile.Tfile) {
	slices.SortFunc(files, func(a, b *tfile.Tfile) int {
		return strings.Compare(a.Path(), b.Path())
	})
}
