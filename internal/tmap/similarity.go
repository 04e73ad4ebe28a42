package tmap

import (
	"math"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/jdefrancesco/tuneDitto/internal/normalize"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
)

// Similarity scores how close rec is to seed on a 0-100 scale using
// Jaro-Winkler over the normalized "artist title" text, or the file name
// when either side is untagged. It is for display only.
func Similarity(seed, rec *tfile.Tfile) int {
	if seed == nil || rec == nil {
		return 0
	}
	if seed == rec {
		return 100
	}

	a, b := matchText(seed), matchText(rec)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return int(math.Round(float64(score) * 100))
}

func matchText(f *tfile.Tfile) string {
	artist, title := normalize.Text(f.Artist()), normalize.Text(f.Title())
	if artist == "" || title == "" {
		return normalize.Text(f.FileName())
	}
	return strings.Join([]string{artist, title}, " ")
}
