package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jdefrancesco/tuneDitto/internal/config"
	"github.com/jdefrancesco/tuneDitto/internal/tcache"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/twalk"

	"github.com/pterm/pterm"
)

// scanLibrary walks root and collects every audio record, showing progress
// on a spinner.
func scanLibrary(ctx context.Context, root string, scan config.Scan, cache *tcache.Cache) ([]*tfile.Tfile, twalk.Stats, error) {
	// Recieve files we need to process via this channel.
	tFiles := make(chan *tfile.Tfile)

	walker := twalk.NewTWalker([]string{root}, tFiles, twalk.Options{
		Extensions:  scan.Extensions,
		SkipHidden:  scan.SkipHidden,
		MinFileSize: scan.MinFileSize,
		MaxFileSize: scan.MaxFileSize,
	})
	if cache != nil {
		walker.WithCache(cache)
	}
	walker.Run(ctx)

	start := time.Now()

	// Show progress to user at intervals specified by tick.
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	infoSpinner, _ := pterm.DefaultSpinner.Start("Scanning library...")

	var files []*tfile.Tfile

MainLoop:
	for {
		select {
		case <-ctx.Done():
			// Drain tFiles so the walker goroutines can finish.
			for range tFiles {
			}
			break MainLoop

		case tFile, ok := <-tFiles:
			if !ok {
				break MainLoop
			}
			if tFile == nil {
				tlog.Tlogger.Warn("Received nil tFile, skipping...")
				continue
			}
			files = append(files, tFile)

		case <-ticker.C:
			infoSpinner.UpdateText(fmt.Sprintf("Scanned %d audio files...", len(files)))
		}
	}

	_ = infoSpinner.Stop()
	if err := ctx.Err(); err != nil {
		return nil, twalk.Stats{}, err
	}

	stats := walker.Stats()
	finalInfo := "Found " + pterm.LightWhite(len(files)) + " audio files in " +
		pterm.LightWhite(time.Since(start).Round(time.Millisecond))
	pterm.Success.Println(finalInfo)
	if stats.TagErrors > 0 {
		pterm.Warning.Printfln("%d files had unreadable tags, see the log for details", stats.TagErrors)
	}
	return files, stats, nil
}
