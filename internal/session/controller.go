package session

import (
	"context"
	"fmt"

	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/tmap"
)

// Controller is the state machine behind a review session. It is not safe
// for concurrent use; one loop owns it.
type Controller struct {
	groups  []*tmap.Group
	state   State
	player  Player
	confirm Confirmer
	remover Remover

	status    string
	deleted   int
	reclaimed int64
}

// New returns a controller positioned on the first group that still has
// something to review. With no such group the session is already done.
func New(groups []*tmap.Group, player Player, confirm Confirmer, remover Remover) *Controller {
	c := &Controller{
		groups:  groups,
		player:  player,
		confirm: confirm,
		remover: remover,
		state: State{
			GroupIndex: -1,
			Playback:   Playback{Index: -1},
		},
	}
	c.transition(+1)
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State { return c.state }

// Done reports whether the session has ended.
func (c *Controller) Done() bool { return c.state.Done }

// Deleted returns how many files were deleted and how many bytes that
// freed.
func (c *Controller) Deleted() (int, int64) { return c.deleted, c.reclaimed }

// Status is the message from the last command, if any.
func (c *Controller) Status() string { return c.status }

func (c *Controller) current() *tmap.Group { return c.groups[c.state.GroupIndex] }

// Handle applies one command. Commands after the session ended are
// ignored.
func (c *Controller) Handle(cmd Command) {
	if c.state.Done {
		return
	}
	c.status = ""
	tlog.Tlogger.Debugf("Command %s in group %d row %d", cmd, c.state.GroupIndex+1, c.state.Selection+1)

	switch cmd.Kind {
	case MoveUp:
		c.moveSelection(-1)
	case MoveDown:
		c.moveSelection(+1)
	case NextGroup:
		c.leave(+1)
	case PrevGroup:
		c.leave(-1)
	case Quit:
		c.stop()
		c.state.Pending = Pending{}
		c.state.Done = true
	case TogglePlay:
		c.togglePlay()
	case Select:
		c.selectRow(cmd.Row)
	case DeleteSelected:
		c.deleteSelected()
	default:
		tlog.Tlogger.Warnf("Ignoring unknown command %v", cmd)
	}
}

func (c *Controller) moveSelection(delta int) {
	n := c.current().Len()
	c.state.Selection = ((c.state.Selection+delta)%n + n) % n
}

// leave moves to the neighbouring group. Playback that the operator didn't
// stop carries over and restarts on the new group's first track.
func (c *Controller) leave(dir int) {
	if c.state.Playback.Playing && !c.state.UserPaused {
		c.state.Pending = Pending{Active: true, Target: c.state.GroupIndex + dir}
	} else {
		c.stop()
	}
	c.transition(dir)
}

// transition moves dir groups at a time until it reaches one with at least
// two files, then lands there. Running off either end ends the session.
func (c *Controller) transition(dir int) {
	target := c.state.GroupIndex + dir
	for target >= 0 && target < len(c.groups) && c.groups[target].Exhausted() {
		if c.state.Pending.Active && c.state.Pending.Target == target {
			c.state.Pending.Target += dir
		}
		target += dir
	}

	if target < 0 || target >= len(c.groups) {
		c.stop()
		c.state.Pending = Pending{}
		c.state.Done = true
		tlog.Tlogger.Infof("No more groups, ending session")
		return
	}
	c.land(target)
}

func (c *Controller) land(idx int) {
	c.state.GroupIndex = idx
	c.state.Selection = 0
	c.state.Playback.Index = -1

	pending := c.state.Pending
	c.state.Pending = Pending{}

	if !pending.Active || pending.Target != idx {
		c.stop()
		return
	}

	rec := c.current().At(0)
	if err := c.player.Play(rec.Path()); err != nil {
		// Continuation is best effort.
		tlog.Tlogger.Warnf("Continuing playback with %s failed: %v", rec.Path(), err)
		c.player.Stop()
		c.state.Playback = Playback{Index: -1}
		return
	}
	c.state.Playback = Playback{Playing: true, Path: rec.Path(), Index: 0}
	c.state.UserPaused = false
}

func (c *Controller) togglePlay() {
	sel := c.state.Selection
	if c.state.Playback.Playing && c.state.Playback.Index == sel {
		c.pause()
		return
	}
	c.play(sel)
}

func (c *Controller) selectRow(k int) {
	idx := k - 1
	if idx < 0 || idx >= c.current().Len() {
		return
	}
	c.state.Selection = idx

	switch {
	case c.state.Playback.Playing && c.state.Playback.Index == idx:
		c.pause()
	case c.state.Playback.Playing:
		c.play(idx)
	case !c.state.UserPaused:
		c.play(idx)
	}
}

// play starts row idx of the current group. It is always an explicit
// operator action so it clears the pause and any pending continuation.
func (c *Controller) play(idx int) {
	c.state.UserPaused = false
	c.state.Pending = Pending{}

	rec := c.current().At(idx)
	if err := c.player.Play(rec.Path()); err != nil {
		tlog.Tlogger.Errorf("Playing %s: %v", rec.Path(), err)
		c.player.Stop()
		c.state.Playback = Playback{Index: -1}
		c.status = fmt.Sprintf("Error playing: %v", err)
		return
	}
	c.state.Playback = Playback{Playing: true, Path: rec.Path(), Index: idx}
}

// pause is an explicit stop by the operator.
func (c *Controller) pause() {
	c.stop()
	c.state.UserPaused = true
	c.state.Pending = Pending{}
}

// stop halts playback without touching the pause flag.
func (c *Controller) stop() {
	if c.state.Playback.Playing {
		c.player.Stop()
	}
	c.state.Playback = Playback{Index: -1}
}

func (c *Controller) deleteSelected() {
	g := c.current()
	sel := c.state.Selection
	rec := g.At(sel)

	if !c.confirm.Confirm(fmt.Sprintf("Delete %s?", rec.FileName())) {
		return
	}

	// The player may hold the file open.
	wasPlaying := c.state.Playback.Playing && c.state.Playback.Index == sel
	if wasPlaying {
		c.player.Stop()
	}

	if err := c.remover.Remove(rec.Path()); err != nil {
		tlog.Tlogger.Errorf("Deleting %s: %v", rec.Path(), err)
		c.status = fmt.Sprintf("Error deleting: %v", err)
		if wasPlaying {
			c.resume(rec.Path())
		}
		return
	}

	if _, err := g.Remove(sel); err != nil {
		// Can't happen while sel is clamped, but never index past the end.
		tlog.Tlogger.Errorf("Removing row %d from group: %v", sel, err)
		return
	}
	c.deleted++
	c.reclaimed += rec.Size()
	c.status = "Deleted."
	tlog.Tlogger.Infof("Deleted %s (%d bytes)", rec.Path(), rec.Size())

	if wasPlaying {
		// Not a pause: playback picks up again in the next group.
		c.state.Playback = Playback{Index: -1}
		c.state.Pending = Pending{Active: true, Target: c.state.GroupIndex + 1}
		c.transition(+1)
		return
	}

	if c.state.Playback.Playing && c.state.Playback.Index > sel {
		c.state.Playback.Index--
	}
	if c.state.Selection >= g.Len() {
		c.state.Selection = max(g.Len()-1, 0)
	}

	if !g.Exhausted() {
		return
	}

	// Nothing left to choose between. A survivor that is still playing
	// carries over like a normal next-group move.
	if c.state.Playback.Playing && !c.state.UserPaused {
		c.state.Pending = Pending{Active: true, Target: c.state.GroupIndex + 1}
	}
	c.transition(+1)
}

// resume restarts the track that was stopped for a delete that then
// failed. If the player refuses, the row is left stopped.
func (c *Controller) resume(path string) {
	if err := c.player.Play(path); err != nil {
		tlog.Tlogger.Warnf("Resuming %s after failed delete: %v", path, err)
		c.player.Stop()
		c.state.Playback = Playback{Index: -1}
	}
}

// View renders the current state for a front end.
func (c *Controller) View() View {
	v := View{
		GroupIndex:  c.state.GroupIndex,
		TotalGroups: len(c.groups),
		Status:      c.status,
		Done:        c.state.Done,
	}
	if c.state.Playback.Playing {
		v.PlayingPath = c.state.Playback.Path
	}
	if c.state.Done || c.state.GroupIndex < 0 || c.state.GroupIndex >= len(c.groups) {
		return v
	}

	g := c.current()
	v.Rows = make([]Row, 0, g.Len())
	for i, f := range g.Files() {
		v.Rows = append(v.Rows, Row{
			Number:   i + 1,
			Artist:   f.Artist(),
			Title:    f.Title(),
			Album:    f.Album(),
			Duration: f.Duration().String(),
			Path:     f.Path(),
			Size:     f.Size(),
			Match:    tmap.Similarity(g.Seed(), f),
			Selected: i == c.state.Selection,
			Playing:  c.state.Playback.Playing && c.state.Playback.Index == i,
		})
	}
	return v
}

// Run is the blocking review loop: draw, read one command, apply it, until
// the session is done. An input error ends the session like Quit.
// Playback is always stopped when Run returns.
func (c *Controller) Run(ctx context.Context, in Input, out Renderer) error {
	defer c.player.Stop()

	for !c.state.Done {
		if err := out.Draw(c.View()); err != nil {
			c.Handle(Command{Kind: Quit})
			return fmt.Errorf("draw: %w", err)
		}

		cmd, err := in.Next(ctx)
		if err != nil {
			tlog.Tlogger.Infof("Input ended (%v), quitting", err)
			c.Handle(Command{Kind: Quit})
			break
		}
		c.Handle(cmd)
	}

	// One last frame so the front end can show how it ended.
	if err := out.Draw(c.View()); err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	return nil
}
