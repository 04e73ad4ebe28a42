// Package tcache keeps the tags we read during a scan in SQLite so a
// second run over the same library only opens files that changed.
package tcache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
)

const schema = `
CREATE TABLE IF NOT EXISTS tags (
	path     TEXT PRIMARY KEY,
	size     INTEGER NOT NULL,
	mtime    INTEGER NOT NULL,
	artist   TEXT NOT NULL DEFAULT '',
	album    TEXT NOT NULL DEFAULT '',
	title    TEXT NOT NULL DEFAULT '',
	year     INTEGER NOT NULL DEFAULT 0,
	duration REAL
)`

// Cache is a tag cache for one library root.
type Cache struct {
	db   *sql.DB
	path string
}

// Key names the cache and lock files for a library root. Different roots
// never share a database.
func Key(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	sum := blake3.Sum256([]byte(filepath.Clean(abs)))
	return hex.EncodeToString(sum[:8])
}

// Open opens or creates the cache for root inside dir.
func Open(dir, root string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, Key(root)+".db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// The walker hits the cache from many goroutines. One connection
	// keeps the pragmas applied and writers from tripping over each other.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	tlog.Tlogger.Debugf("Opened tag cache %s for %s", dbPath, root)
	return &Cache{db: db, path: dbPath}, nil
}

// Path returns the database file backing the cache.
func (c *Cache) Path() string { return c.path }

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup returns the cached tags for path if the entry was stored for the
// same size and modification time. Anything else is a miss.
func (c *Cache) Lookup(ctx context.Context, path string, size int64, modified time.Time) (tfile.Tags, bool, error) {
	var (
		tags     tfile.Tags
		duration sql.NullFloat64
	)

	row := c.db.QueryRowContext(ctx,
		`SELECT artist, album, title, year, duration FROM tags WHERE path = ? AND size = ? AND mtime = ?`,
		path, size, modified.UnixNano())
	err := row.Scan(&tags.Artist, &tags.Album, &tags.Title, &tags.Year, &duration)
	if errors.Is(err, sql.ErrNoRows) {
		return tfile.Tags{}, false, nil
	}
	if err != nil {
		return tfile.Tags{}, false, fmt.Errorf("lookup %s: %w", path, err)
	}

	if duration.Valid {
		tags.Duration = tfile.Known(duration.Float64)
	}
	return tags, true, nil
}

// Store records the tags of rec at its scanned size and mtime,
// replacing any previous entry for the path.
func (c *Cache) Store(ctx context.Context, rec *tfile.Tfile) error {
	path, tags := rec.Path(), rec.Tags()
	var duration sql.NullFloat64
	if secs, ok := tags.Duration.Seconds(); ok {
		duration = sql.NullFloat64{Float64: secs, Valid: true}
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO tags (path, size, mtime, artist, album, title, year, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size = excluded.size,
			mtime = excluded.mtime,
			artist = excluded.artist,
			album = excluded.album,
			title = excluded.title,
			year = excluded.year,
			duration = excluded.duration`,
		path, rec.Size(), rec.Modified().UnixNano(), tags.Artist, tags.Album, tags.Title, tags.Year, duration)
	if err != nil {
		return fmt.Errorf("store %s: %w", path, err)
	}
	return nil
}

// Invalidate forgets path. Deleting a file from the session calls this so
// a stale entry never outlives the file.
func (c *Cache) Invalidate(ctx context.Context, path string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM tags WHERE path = ?`, path); err != nil {
		return fmt.Errorf("invalidate %s: %w", path, err)
	}
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}
