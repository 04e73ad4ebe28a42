//go:build tools
// +build tools

// genlibrary writes a fake music library with planted duplicates for
// trying tuneDitto out. The audio is noise; only the tags are real.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bogem/id3v2/v2"
)

type song struct {
	artist string
	title  string
	album  string
	year   string
	millis int
}

var songs = []song{
	{"Portishead", "Roads", "Dummy", "1994", 305000},
	{"Massive Attack", "Teardrop", "Mezzanine", "1998", 330000},
	{"Daft Punk", "One More Time", "Discovery", "2001", 320000},
	{"Björk", "Jóga", "Homogenic", "1997", 305000},
	{"AC/DC", "Thunderstruck", "The Razors Edge", "1990", 292000},
	{"Boards of Canada", "Roygbiv", "Music Has the Right to Children", "1998", 151000},
}

// Copies get the title decorations people end up with after a few
// re-rips and imports.
var decorations = []string{"", " (Remastered)", " [Radio Edit]", " - 2011 Remaster"}

var sizes = []int64{
	512 * 1024,  // 512KB
	1024 * 1024, // 1MB
	3 * 1024 * 1024,
}

type randReader struct {
	remaining int64
}

func (r *randReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err := rand.Read(p)
	r.remaining -= int64(n)
	return n, err
}

func writeSong(path string, s song, title string, size int64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tag := id3v2.NewEmptyTag()
	tag.SetArtist(s.artist)
	tag.SetTitle(title)
	tag.SetAlbum(s.album)
	tag.SetYear(s.year)
	tag.AddTextFrame("TLEN", tag.DefaultEncoding(), strconv.Itoa(s.millis))

	// #nosec G304
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := tag.WriteTo(f); err != nil {
		return err
	}
	_, err = io.Copy(f, &randReader{remaining: size})
	return err
}

func createLibrary(dir string, copies int) (int, error) {
	fmt.Println("createLibrary running...")
	n := 0
	for i, s := range songs {
		size := sizes[i%len(sizes)]
		for c := range copies {
			title := s.title + decorations[c%len(decorations)]
			path := filepath.Join(dir, fmt.Sprintf("import%d", c), s.artist, title+".mp3")

			fmt.Printf("Creating: %s\n", path)
			if err := writeSong(path, s, title, size+int64(c)*512); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

func main() {
	dir := flag.String("dir", "./library", "Where to write the library")
	copies := flag.Int("copies", 3, "Copies of every song")
	flag.Parse()

	n, err := createLibrary(*dir, *copies)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Created", n, "test files in", *dir)
}
