package tfile

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"time"
)

// Duration is the playing time of a track when the tags or stream header
// told us. The zero value is Unknown.
type Duration struct {
	seconds float64
	known   bool
}

// Unknown is the duration of a track we could not measure.
var Unknown = Duration{}

// Known returns a known duration. Negative or non-finite values are
// treated as unknown.
func Known(seconds float64) Duration {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return Unknown
	}
	return Duration{seconds: seconds, known: true}
}

// Seconds returns the duration and whether it is known.
func (d Duration) Seconds() (float64, bool) { return d.seconds, d.known }

// IsKnown reports whether the duration was measured.
func (d Duration) IsKnown() bool { return d.known }

// Within reports whether both durations are known and differ by at most tol
// seconds. Two unknown durations are never within any tolerance.
func (d Duration) Within(other Duration, tol float64) bool {
	if !d.known || !other.known {
		return false
	}
	return math.Abs(d.seconds-other.seconds) <= tol
}

// String formats as MM:SS using total minutes, so a 75 minute live set
// reads 75:03. Unknown durations are empty.
func (d Duration) String() string {
	if !d.known {
		return ""
	}
	total := int64(d.seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// Tags holds the optional metadata we care about. Empty strings and a
// zero year mean the tag was absent.
type Tags struct {
	Artist   string
	Album    string
	Title    string
	Year     int
	Duration Duration
}

// Tfile describes a scanned audio file. It is immutable once created.
type Tfile struct {
	path     string
	size     int64
	modified time.Time
	tags     Tags
}

// NewTfile creates a new Tfile. The path is made absolute so it can serve
// as the record's identity for the run.
func NewTfile(path string, size int64, modified time.Time, tags Tags) (*Tfile, error) {
	if path == "" {
		return nil, errors.New("file name needs to be specified")
	}
	if size < 0 {
		return nil, fmt.Errorf("negative size %d for %s", size, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't get absolute filename for %s: %w", path, err)
	}

	return &Tfile{
		path:     abs,
		size:     size,
		modified: modified,
		tags:     tags,
	}, nil
}

// Path returns the absolute path of the file.
func (t *Tfile) Path() string { return t.path }

// FileName returns the base name only instead of the full pathname.
func (t *Tfile) FileName() string { return filepath.Base(t.path) }

// Size returns the file size in bytes.
func (t *Tfile) Size() int64 { return t.size }

// Modified returns the last modification time recorded during the scan.
func (t *Tfile) Modified() time.Time { return t.modified }

func (t *Tfile) Artist() string     { return t.tags.Artist }
func (t *Tfile) Album() string      { return t.tags.Album }
func (t *Tfile) Title() string      { return t.tags.Title }
func (t *Tfile) Year() int          { return t.tags.Year }
func (t *Tfile) Duration() Duration { return t.tags.Duration }

// Tags returns a copy of the file's metadata.
func (t *Tfile) Tags() Tags { return t.tags }

func (t *Tfile) String() string {
	return fmt.Sprintf("%s - %s [%s] (%d KB)", t.tags.Artist, t.tags.Title, t.tags.Album, t.size/1024)
}
