// Implement our primary data structure, the duplicate Group.
//
// Unlike a content hash map, audio duplicates are fuzzy: two rips of the
// same track rarely share a byte. We group on normalized tags instead:
//
// { seed --> [seed, likelyDuplicate1, likelyDuplicate2, etc...] }
//
// A group is "things like the first one found". Members are compared
// against the seed only, never against each other.
package tmap

import (
	"fmt"
	"math"

	"github.com/jdefrancesco/tuneDitto/internal/normalize"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
)

const (
	// Tolerances for tagged files (artist and title on both sides).
	taggedDurationTolerance = 1.5
	minSizeTolerance        = 2048
	sizeTolerancePercent    = 0.01

	// Untagged files fall back to file name and need a tighter match.
	untaggedDurationTolerance = 1.0
)

// Group is an ordered set of likely duplicates in discovery order. It has
// at least two members when created and only shrinks afterwards.
type Group struct {
	seed  *tfile.Tfile
	files []*tfile.Tfile
}

// NewGroup returns a group seeded with files[0]. It is meant for callers
// that already know which files belong together, tests mostly.
func NewGroup(files ...*tfile.Tfile) (*Group, error) {
	if len(files) < 2 {
		return nil, fmt.Errorf("a group needs at least two files, got %d", len(files))
	}
	return &Group{seed: files[0], files: append([]*tfile.Tfile(nil), files...)}, nil
}

// Len returns the number of files currently in the group.
func (g *Group) Len() int { return len(g.files) }

// At returns the file at index i.
func (g *Group) At(i int) *tfile.Tfile { return g.files[i] }

// Files returns a copy of the group's members.
func (g *Group) Files() []*tfile.Tfile { return append([]*tfile.Tfile(nil), g.files...) }

// Seed returns the file the group was built around. It stays the seed
// even after it has been removed from the group.
func (g *Group) Seed() *tfile.Tfile { return g.seed }

// Exhausted reports whether the group has nothing left to choose between.
func (g *Group) Exhausted() bool { return len(g.files) <= 1 }

// Remove drops the file at index i, keeping the order of the rest.
func (g *Group) Remove(i int) (*tfile.Tfile, error) {
	if i < 0 || i >= len(g.files) {
		return nil, fmt.Errorf("remove index %d out of range [0, %d)", i, len(g.files))
	}
	f := g.files[i]
	g.files = append(g.files[:i], g.files[i+1:]...)
	return f, nil
}

// TotalSize returns the bytes held by every member of the group.
func (g *Group) TotalSize() int64 {
	var total int64
	for _, f := range g.files {
		total += f.Size()
	}
	return total
}

// key holds the normalized strings for a file so the O(n²) pass doesn't
// normalize the same tag thousands of times.
type key struct {
	artist string
	title  string
	name   string
}

func keyOf(f *tfile.Tfile) key {
	return key{
		artist: normalize.Text(f.Artist()),
		title:  normalize.Text(f.Title()),
		name:   normalize.Text(f.FileName()),
	}
}

// GroupFiles partitions files into groups of likely duplicates. Output is
// deterministic for a given input order and singletons are dropped.
func GroupFiles(files []*tfile.Tfile) []*Group {
	keys := make([]key, len(files))
	for i, f := range files {
		keys[i] = keyOf(f)
	}

	visited := make([]bool, len(files))
	var groups []*Group

	for i, a := range files {
		if visited[i] {
			continue
		}
		visited[i] = true
		g := &Group{seed: a, files: []*tfile.Tfile{a}}

		for j := i + 1; j < len(files); j++ {
			if visited[j] {
				continue
			}
			if likelyDuplicates(a, files[j], keys[i], keys[j]) {
				g.files = append(g.files, files[j])
				visited[j] = true
			}
		}

		if len(g.files) > 1 {
			groups = append(groups, g)
		}
	}

	tlog.Tlogger.Debugf("Grouped %d files into %d duplicate groups", len(files), len(groups))
	return groups
}

// AreLikelyDuplicates reports whether b looks like another copy of a.
func AreLikelyDuplicates(a, b *tfile.Tfile) bool {
	return likelyDuplicates(a, b, keyOf(a), keyOf(b))
}

func likelyDuplicates(a, b *tfile.Tfile, ka, kb key) bool {
	tagged := ka.artist != "" && ka.title != "" && kb.artist != "" && kb.title != ""

	if tagged {
		if ka.artist != kb.artist || ka.title != kb.title {
			return false
		}
		// Unknown durations are skipped here, not rejected.
		da, db := a.Duration(), b.Duration()
		if da.IsKnown() && db.IsKnown() && !da.Within(db, taggedDurationTolerance) {
			return false
		}
		return sizesClose(a.Size(), b.Size())
	}

	if ka.name == "" || ka.name != kb.name {
		return false
	}
	return a.Duration().Within(b.Duration(), untaggedDurationTolerance)
}

// sizesClose allows max(2 KiB, 1% of the larger file) of difference to
// absorb differing tag blocks and padding.
func sizesClose(a, b int64) bool {
	larger := max(a, b)
	tolerance := max(int64(minSizeTolerance), int64(float64(larger)*sizeTolerancePercent))

	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// DeletableBytes returns the space freed if every group were cut down to a
// single file, keeping the largest copy of each.
func DeletableBytes(groups []*Group) int64 {
	var total int64
	for _, g := range groups {
		if len(g.files) == 0 {
			continue
		}
		var largest int64 = math.MinInt64
		for _, f := range g.files {
			largest = max(largest, f.Size())
		}
		total += g.TotalSize() - largest
	}
	return total
}
