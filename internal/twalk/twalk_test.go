package twalk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
)

func TestMain(m *testing.M) {
	tlog.InitializeTlogger("/dev/null")
	os.Exit(m.Run())
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func fakeTags(path string) (tfile.Tags, error) {
	return tfile.Tags{Title: filepath.Base(path), Duration: tfile.Known(60)}, nil
}

// walk runs a walker over root and returns the emitted records keyed by
// path relative to root.
func walk(t *testing.T, root string, opts Options, setup func(*TWalk)) (map[string]*tfile.Tfile, *TWalk) {
	t.Helper()

	ch := make(chan *tfile.Tfile)
	w := NewTWalker([]string{root}, ch, opts)
	w.readTags = fakeTags
	if setup != nil {
		setup(w)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	w.Run(ctx)

	got := make(map[string]*tfile.Tfile)
	for rec := range ch {
		rel, err := filepath.Rel(root, rec.Path())
		if err != nil {
			t.Fatalf("Rel: %v", err)
		}
		got[rel] = rec
	}
	return got, w
}

func keys(m map[string]*tfile.Tfile) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func TestWalkFindsAudioFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), 10)
	writeFile(t, filepath.Join(root, "b.FLAC"), 10)
	writeFile(t, filepath.Join(root, "cover.jpg"), 10)
	writeFile(t, filepath.Join(root, "notes.txt"), 10)
	writeFile(t, filepath.Join(root, "disc1", "01.ogg"), 10)
	writeFile(t, filepath.Join(root, "disc1", "deep", "02.m4a"), 10)
	writeFile(t, filepath.Join(root, "disc2", "03.wav"), 10)

	got, w := walk(t, root, Options{}, nil)

	want := []string{"a.mp3", "b.FLAC", "disc1/01.ogg", "disc1/deep/02.m4a", "disc2/03.wav"}
	for i := range want {
		want[i] = filepath.FromSlash(want[i])
	}
	if k := keys(got); !slices.Equal(k, want) {
		t.Fatalf("got %v, want %v", k, want)
	}
	if rec := got["a.mp3"]; rec.Title() != "a.mp3" || rec.Size() != 10 || !rec.Duration().IsKnown() {
		t.Errorf("unexpected record %v", rec)
	}
	if w.Stats().Files != 5 {
		t.Errorf("Stats().Files = %d, want 5", w.Stats().Files)
	}
}

func TestWalkOptions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tiny.mp3"), 5)
	writeFile(t, filepath.Join(root, "ok.mp3"), 50)
	writeFile(t, filepath.Join(root, "huge.mp3"), 500)
	writeFile(t, filepath.Join(root, ".hidden.mp3"), 50)
	writeFile(t, filepath.Join(root, ".trash", "x.mp3"), 50)
	writeFile(t, filepath.Join(root, "x.flac"), 50)

	opts := Options{
		Extensions:  []string{"MP3"},
		SkipHidden:  true,
		MinFileSize: 10,
		MaxFileSize: 500,
	}
	got, _ := walk(t, root, opts, nil)

	if k := keys(got); !slices.Equal(k, []string{"ok.mp3"}) {
		t.Fatalf("got %v, want [ok.mp3]", k)
	}
}

func TestWalkKeepsFilesWithBadTags(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "broken.mp3"), 10)

	got, w := walk(t, root, Options{}, func(w *TWalk) {
		w.readTags = func(string) (tfile.Tags, error) {
			return tfile.Tags{Artist: "partial"}, errors.New("truncated frame")
		}
	})

	rec, ok := got["broken.mp3"]
	if !ok {
		t.Fatal("file with unreadable tags was dropped")
	}
	if rec.Artist() != "partial" {
		t.Errorf("recovered fields lost: %v", rec)
	}
	if w.Stats().TagErrors != 1 {
		t.Errorf("TagErrors = %d, want 1", w.Stats().TagErrors)
	}
}

type memCache struct {
	mu     sync.Mutex
	data   map[string]tfile.Tags
	stores int
}

func (m *memCache) Lookup(_ context.Context, path string, _ int64, _ time.Time) (tfile.Tags, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.data[path]
	return t, ok, nil
}

func (m *memCache) Store(_ context.Context, rec *tfile.Tfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[rec.Path()] = rec.Tags()
	m.stores++
	return nil
}

func TestWalkUsesCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "cached.mp3"), 10)
	writeFile(t, filepath.Join(root, "fresh.mp3"), 10)

	cachedPath, err := filepath.Abs(filepath.Join(root, "cached.mp3"))
	if err != nil {
		t.Fatal(err)
	}
	cache := &memCache{data: map[string]tfile.Tags{
		cachedPath: {Artist: "From Cache"},
	}}

	got, w := walk(t, root, Options{}, func(w *TWalk) { w.WithCache(cache) })

	if got["cached.mp3"].Artist() != "From Cache" {
		t.Errorf("cached tags not used: %v", got["cached.mp3"])
	}
	if got["fresh.mp3"].Title() != "fresh.mp3" {
		t.Errorf("fresh file not read: %v", got["fresh.mp3"])
	}
	if cache.stores != 1 {
		t.Errorf("stores = %d, want 1", cache.stores)
	}
	if stored := cache.data[got["fresh.mp3"].Path()]; stored.Title != "fresh.mp3" {
		t.Errorf("fresh record not stored under its path: %+v", cache.data)
	}
	if w.Stats().CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", w.Stats().CacheHits)
	}
}

func TestWalkCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), 10)

	ch := make(chan *tfile.Tfile)
	w := NewTWalker([]string{root}, ch, Options{})
	w.readTags = fakeTags

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	n := 0
	for range ch {
		n++
	}
	if n != 0 {
		t.Fatalf("expected no files after cancel, got %d", n)
	}
}

func TestSortByPath(t *testing.T) {
	var files []*tfile.Tfile
	for _, p := range []string{"/m/c.mp3", "/m/a.mp3", "/m/b/z.mp3"} {
		f, err := tfile.NewTfile(p, 1, time.Time{}, tfile.Tags{})
		if err != nil {
			t.Fatal(err)
		}
		files = append(files, f)
	}
	SortByPath(files)

	want := []string{"/m/a.mp3", "/m/b/z.mp3", "/m/c.mp3"}
	for i, f := range files {
		if f.Path() != want[i] {
			t.Fatalf("position %d = %s, want %s", i, f.Path(), want[i])
		}
	}
}
