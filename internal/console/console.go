// Package console is the plain terminal front end for a review session. It
// redraws the current group with pterm after every key and reads single
// keystrokes with atomicgo's keyboard package.
package console

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/jdefrancesco/tuneDitto/internal/session"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/pterm/pterm"
)

const clearScreen = "\033[H\033[2J"

const helpLine = "↑/↓ select   ←/→ group   enter play/stop   1-9 play row   del delete   q quit"

// listen is swapped out in tests.
var listen = keyboard.Listen

// Keyboard reads one command per keystroke. Keys that mean nothing to the
// session are skipped.
type Keyboard struct{}

// Next blocks until a key that decodes to a command is pressed.
//
// keyboard has no way to interrupt a listener from outside. If ctx ends
// first, Next returns at once and the listener keeps the terminal raw
// until the next keystroke, which it swallows before restoring the
// terminal. A cancelled context means the process is on its way out.
func (Keyboard) Next(ctx context.Context) (session.Command, error) {
	type result struct {
		cmd session.Command
		err error
	}
	ch := make(chan result, 1)

	go func() {
		var cmd session.Command
		err := listen(func(key keys.Key) (bool, error) {
			if ctx.Err() != nil {
				return true, nil
			}
			c, ok := decodeKey(key)
			if !ok {
				return false, nil
			}
			cmd = c
			return true, nil
		})
		ch <- result{cmd: cmd, err: err}
	}()

	select {
	case <-ctx.Done():
		return session.Command{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return session.Command{}, fmt.Errorf("reading keyboard: %w", r.err)
		}
		return r.cmd, nil
	}
}

// decodeKey maps a keystroke to a session command.
func decodeKey(key keys.Key) (session.Command, bool) {
	if key.AltPressed {
		return session.Command{}, false
	}

	switch key.Code {
	case keys.Up:
		return session.Command{Kind: session.MoveUp}, true
	case keys.Down:
		return session.Command{Kind: session.MoveDown}, true
	case keys.Left:
		return session.Command{Kind: session.PrevGroup}, true
	case keys.Right:
		return session.Command{Kind: session.NextGroup}, true
	case keys.Enter, keys.Space:
		return session.Command{Kind: session.TogglePlay}, true
	case keys.Backspace, keys.Delete:
		return session.Command{Kind: session.DeleteSelected}, true
	case keys.Escape, keys.CtrlC:
		return session.Command{Kind: session.Quit}, true
	case keys.RuneKey:
		if len(key.Runes) != 1 {
			return session.Command{}, false
		}
		return decodeRune(key.Runes[0])
	}
	return session.Command{}, false
}

func decodeRune(r rune) (session.Command, bool) {
	switch r {
	case 'k':
		return session.Command{Kind: session.MoveUp}, true
	case 'j':
		return session.Command{Kind: session.MoveDown}, true
	case 'h':
		return session.Command{Kind: session.PrevGroup}, true
	case 'n', 'l':
		return session.Command{Kind: session.NextGroup}, true
	case 'p':
		return session.Command{Kind: session.TogglePlay}, true
	case 'd':
		return session.Command{Kind: session.DeleteSelected}, true
	case 'q', 'Q':
		return session.Command{Kind: session.Quit}, true
	}
	if r >= '1' && r <= '9' {
		return session.SelectRow(int(r - '0')), true
	}
	return session.Command{}, false
}

// Screen draws each frame to w, clearing what was there before.
type Screen struct {
	w    io.Writer
	wipe bool
}

// NewScreen returns a renderer writing to w. wipe controls whether each
// frame clears the terminal first.
func NewScreen(w io.Writer, wipe bool) *Screen {
	return &Screen{w: w, wipe: wipe}
}

// Draw renders one frame of the session.
func (s *Screen) Draw(v session.View) error {
	frame, err := renderFrame(v)
	if err != nil {
		return err
	}
	if s.wipe {
		frame = clearScreen + frame
	}
	_, err = io.WriteString(s.w, frame)
	return err
}

func renderFrame(v session.View) (string, error) {
	if v.Done {
		return pterm.FgGray.Sprintln("Review finished."), nil
	}

	title := pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).
		Sprintf("Group %d of %d", v.GroupIndex+1, v.TotalGroups)

	data := pterm.TableData{{"", "#", "Artist", "Title", "Duration", "Size", "Match", "File Path"}}
	for _, row := range v.Rows {
		marker := ""
		switch {
		case row.Playing && row.Selected:
			marker = "▶>"
		case row.Playing:
			marker = "▶"
		case row.Selected:
			marker = ">"
		}
		data = append(data, []string{
			marker,
			strconv.Itoa(row.Number),
			row.Artist,
			row.Title,
			row.Duration,
			tfile.FormatSize(row.Size),
			fmt.Sprintf("%d%%", row.Match),
			row.Path,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}

	frame := title + "\n" + table + "\n"
	if v.PlayingPath != "" {
		frame += pterm.FgGreen.Sprint("Playing: "+filepath.Base(v.PlayingPath)) + "\n"
	} else {
		frame += pterm.FgGray.Sprint("Stopped") + "\n"
	}
	if v.Status != "" {
		frame += pterm.FgRed.Sprint(v.Status) + "\n"
	}
	frame += pterm.FgGray.Sprint(helpLine) + "\n"
	return frame, nil
}

// Confirm asks yes or no with pterm's interactive prompt, defaulting to no.
type Confirm struct{}

func (Confirm) Confirm(prompt string) bool {
	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
	if err != nil {
		tlog.Tlogger.Warnf("Confirmation prompt failed: %v", err)
		return false
	}
	return ok
}
