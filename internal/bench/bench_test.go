// This package contains benchmark related logic/tests.
package bench

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jdefrancesco/tuneDitto/internal/normalize"
	"github.com/jdefrancesco/tuneDitto/internal/tcache"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/tmap"
	"github.com/jdefrancesco/tuneDitto/internal/twalk"

	"github.com/bogem/id3v2/v2"
)

// setupBenchmark initializes the logger and other necessary components
func setupBenchmark() {
	// Use /dev/null to avoid creating log files during benchmarks
	tlog.InitializeTlogger("/dev/null")
}

// library builds n in-memory records where every fourth song has a
// second copy with a different spelling.
func library(b *testing.B, n int) []*tfile.Tfile {
	b.Helper()

	files := make([]*tfile.Tfile, 0, n)
	for i := range n {
		artist := fmt.Sprintf("Artist %d", i/4)
		title := fmt.Sprintf("Song number %d", i/4)
		if i%4 == 1 {
			title += " (Remastered 2011)"
		} else if i%4 > 1 {
			title = fmt.Sprintf("Song number %d", i)
		}
		f, err := tfile.NewTfile(fmt.Sprintf("/music/%04d.mp3", i), 4_000_000+int64(i%4)*100, time.Time{},
			tfile.Tags{Artist: artist, Title: title, Duration: tfile.Known(200 + float64(i%2))})
		if err != nil {
			b.Fatal(err)
		}
		files = append(files, f)
	}
	return files
}

// BenchmarkNormalizeText benchmarks the title/artist normalizer on a
// typical noisy title.
func BenchmarkNormalizeText(b *testing.B) {
	for b.Loop() {
		_ = normalize.Text("Don't Stop Me Now [2011 Remaster] (Live at Wembley) feat. Queen")
	}
}

// BenchmarkGroupFiles benchmarks grouping a thousand records.
func BenchmarkGroupFiles(b *testing.B) {
	files := library(b, 1000)

	b.ResetTimer()
	for b.Loop() {
		groups := tmap.GroupFiles(files)
		if len(groups) == 0 {
			b.Fatal("expected duplicate groups")
		}
	}
}

func writeTagged(b *testing.B, dir string, n int) {
	b.Helper()

	for i := range n {
		tag := id3v2.NewEmptyTag()
		tag.SetArtist(fmt.Sprintf("Artist %d", i%10))
		tag.SetTitle(fmt.Sprintf("Title %d", i))

		f, err := os.Create(filepath.Join(dir, fmt.Sprintf("track%03d.mp3", i)))
		if err != nil {
			b.Fatal(err)
		}
		if _, err := tag.WriteTo(f); err != nil {
			b.Fatal(err)
		}
		if _, err := f.Write(make([]byte, 4096)); err != nil {
			b.Fatal(err)
		}
		f.Close()
	}
}

// BenchmarkTWalkRun benchmarks a library walk that reads every tag.
func BenchmarkTWalkRun(b *testing.B) {
	setupBenchmark()

	tmpDir := b.TempDir()
	writeTagged(b, tmpDir, 100)

	b.ResetTimer()
	for b.Loop() {
		tFiles := make(chan *tfile.Tfile, 1000)
		walker := twalk.NewTWalker([]string{tmpDir}, tFiles, twalk.Options{})
		walker.Run(context.Background())

		n := 0
		for range tFiles {
			n++
		}
		if n != 100 {
			b.Fatalf("walked %d files, want 100", n)
		}
	}
}

// BenchmarkTWalkRunCached benchmarks the same walk served from a warm tag
// cache.
func BenchmarkTWalkRunCached(b *testing.B) {
	setupBenchmark()

	tmpDir := b.TempDir()
	writeTagged(b, tmpDir, 100)

	cache, err := tcache.Open(b.TempDir(), tmpDir)
	if err != nil {
		b.Fatal(err)
	}
	defer cache.Close()

	walk := func() {
		tFiles := make(chan *tfile.Tfile, 1000)
		twalk.NewTWalker([]string{tmpDir}, tFiles, twalk.Options{}).WithCache(cache).Run(context.Background())
		for range tFiles {
		}
	}
	// Warm the cache.
	walk()

	b.ResetTimer()
	for b.Loop() {
		walk()
	}
}
