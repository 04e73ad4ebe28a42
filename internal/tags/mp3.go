package tags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
)

func readMP3(path string) (tfile.Tags, error) {
	t, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return tfile.Tags{}, fmt.Errorf("read id3v2 tags from %s: %w", path, err)
	}
	defer t.Close()

	return tfile.Tags{
		Artist:   preferArtist(t.Artist(), t.GetTextFrame("TPE2").Text),
		Album:    strings.TrimSpace(t.Album()),
		Title:    strings.TrimSpace(t.Title()),
		Year:     parseYear(t.Year()),
		Duration: tlenDuration(t.GetTextFrame("TLEN").Text),
	}, nil
}

// tlenDuration converts a TLEN frame (milliseconds as text) into a
// duration. A missing or garbled frame is Unknown.
func tlenDuration(text string) tfile.Duration {
	ms, err := strconv.ParseFloat(strings.TrimSpace(strings.Trim(text, "\x00")), 64)
	if err != nil || ms <= 0 {
		return tfile.Unknown
	}
	return tfile.Known(ms / 1000)
}
