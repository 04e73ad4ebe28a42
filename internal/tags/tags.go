// Package tags reads the handful of tags we group on from audio files.
// Every reader is best effort: whatever could be recovered is returned
// together with the error that stopped it.
package tags

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
)

// DefaultExtensions are the audio formats we scan for.
var DefaultExtensions = []string{".mp3", ".flac", ".wav", ".ogg", ".m4a", ".m4p"}

type reader func(path string) (tfile.Tags, error)

var readers = map[string]reader{
	".mp3":  readMP3,
	".flac": readFLAC,
	".wav":  readWAV,
}

// Read returns the tags of the audio file at path. The reader is chosen by
// extension and anything we have no dedicated reader for goes through
// dhowden/tag.
func Read(path string) (tfile.Tags, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if fn, ok := readers[ext]; ok {
		return fn(path)
	}
	return readGeneric(path)
}

func readGeneric(path string) (tfile.Tags, error) {
	// #nosec G304
	f, err := os.Open(path)
	if err != nil {
		return tfile.Tags{}, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return tfile.Tags{}, fmt.Errorf("read tags from %s: %w", path, err)
	}

	return tfile.Tags{
		Artist: preferArtist(m.Artist(), m.AlbumArtist()),
		Album:  strings.TrimSpace(m.Album()),
		Title:  strings.TrimSpace(m.Title()),
		Year:   m.Year(),
	}, nil
}

// preferArtist returns the track artist, or the album artist when the
// track has none.
func preferArtist(artist, albumArtist string) string {
	if a := strings.TrimSpace(artist); a != "" {
		return a
	}
	return strings.TrimSpace(albumArtist)
}

// parseYear pulls the year out of free form date tags such as "2001",
// "2001-05-14" or "2001/05".
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	y, err := strconv.Atoi(s[:4])
	if err != nil || y <= 0 {
		return 0
	}
	return y
}
