package tmap

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jdefrancesco/tuneDitto/internal/tfile"
)

type exportFile struct {
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Artist   string `json:"artist,omitempty"`
	Title    string `json:"title,omitempty"`
	Album    string `json:"album,omitempty"`
	Year     int    `json:"year,omitempty"`
	Duration string `json:"duration,omitempty"`
	Match    int    `json:"match"`
}

type exportGroup struct {
	Group          int          `json:"group"`
	DuplicateCount int          `json:"duplicate_count"`
	Files          []exportFile `json:"files"`
}

type exportSummary struct {
	Root         string        `json:"root"`
	FileCount    int           `json:"file_count"`
	GroupCount   int           `json:"group_count"`
	ReclaimableB int64         `json:"reclaimable_bytes"`
	Groups       []exportGroup `json:"groups"`
}

// Report is a read-only view of the groups found under root, used for the
// non-interactive list mode and for scripting.
type Report struct {
	root      string
	fileCount int
	groups    []*Group
}

// NewReport returns a report over groups. fileCount is the number of audio
// files that were scanned to produce them.
func NewReport(root string, fileCount int, groups []*Group) *Report {
	return &Report{root: root, fileCount: fileCount, groups: groups}
}

// WriteJSON writes the duplicate groups to a JSON file.
func (r *Report) WriteJSON(path string) error {
	summary := r.collectExportSummary()
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	file, err := secureOutputFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("write JSON file %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes one row per file, tagged with its group number.
func (r *Report) WriteCSV(path string) error {
	summary := r.collectExportSummary()
	file, err := secureOutputFile(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{"group", "duplicate_count", "path", "size_bytes", "artist", "title", "album", "year", "duration", "match"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, group := range summary.Groups {
		num := strconv.Itoa(group.Group)
		count := strconv.Itoa(group.DuplicateCount)
		for _, f := range group.Files {
			year := ""
			if f.Year != 0 {
				year = strconv.Itoa(f.Year)
			}
			row := []string{num, count, f.Path, strconv.FormatInt(f.Size, 10),
				f.Artist, f.Title, f.Album, year, f.Duration, strconv.Itoa(f.Match)}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV writer: %w", err)
	}
	return nil
}

// WriteTable renders every group as a rounded table, one after another.
func (r *Report) WriteTable(w io.Writer) error {
	for i, g := range r.groups {
		if _, err := fmt.Fprintf(w, "Group %d of %d\n", i+1, len(r.groups)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, renderGroup(g)); err != nil {
			return err
		}
	}
	return nil
}

func renderGroup(g *Group) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Artist", "Title", "Duration", "Size", "Match", "File Path"})

	for i, f := range g.files {
		tw.AppendRow(table.Row{
			i + 1,
			f.Artist(),
			f.Title(),
			f.Duration().String(),
			tfile.FormatSize(f.Size()),
			fmt.Sprintf("%d%%", Similarity(g.seed, f)),
			f.Path(),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	return tw.Render()
}

func (r *Report) collectExportSummary() exportSummary {
	if r == nil {
		return exportSummary{}
	}

	total := 0
	exportGroups := make([]exportGroup, 0, len(r.groups))
	for i, g := range r.groups {
		item := exportGroup{
			Group:          i + 1,
			DuplicateCount: g.Len(),
			Files:          make([]exportFile, 0, g.Len()),
		}
		for _, f := range g.files {
			item.Files = append(item.Files, exportFile{
				Path:     f.Path(),
				Size:     f.Size(),
				Artist:   f.Artist(),
				Title:    f.Title(),
				Album:    f.Album(),
				Year:     f.Year(),
				Duration: f.Duration().String(),
				Match:    Similarity(g.seed, f),
			})
		}
		total += g.Len()
		exportGroups = append(exportGroups, item)
	}

	return exportSummary{
		Root:         r.root,
		FileCount:    max(r.fileCount, total),
		GroupCount:   len(exportGroups),
		ReclaimableB: DeletableBytes(r.groups),
		Groups:       exportGroups,
	}
}

func secureOutputFile(path string) (*os.File, error) {
	if path == "" {
		return nil, errors.New("output path is empty")
	}

	clean := filepath.Clean(path)
	abs, err := filepath.Abs(clean)
	if err != nil {
		return nil, fmt.Errorf("resolve output path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return nil, fmt.Errorf("output path %s is a directory", abs)
	}

	return openFileSecure(abs, filepath.Dir(abs), filepath.Base(abs))
}
