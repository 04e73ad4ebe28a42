// Package session drives the interactive review of duplicate groups: which
// group is shown, which row is selected, what is playing, and what happens
// to playback when files are deleted or the operator moves on.
package session

import (
	"context"
	"fmt"
)

// CommandKind is one operator action.
type CommandKind int

const (
	MoveUp CommandKind = iota
	MoveDown
	NextGroup
	PrevGroup
	Quit
	TogglePlay
	Select
	DeleteSelected
)

var kindNames = map[CommandKind]string{
	MoveUp:         "move-up",
	MoveDown:       "move-down",
	NextGroup:      "next-group",
	PrevGroup:      "prev-group",
	Quit:           "quit",
	TogglePlay:     "toggle-play",
	Select:         "select",
	DeleteSelected: "delete",
}

func (k CommandKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("CommandKind(%d)", int(k))
}

// Command is what a front end hands the controller. Row is only used by
// Select and is 1-based, matching the digit keys.
type Command struct {
	Kind CommandKind
	Row  int
}

// SelectRow returns the command for digit key k.
func SelectRow(k int) Command { return Command{Kind: Select, Row: k} }

func (c Command) String() string {
	if c.Kind == Select {
		return fmt.Sprintf("select %d", c.Row)
	}
	return c.Kind.String()
}

// Player plays one file at a time. Play replaces whatever was playing and
// Stop is safe to call when idle.
type Player interface {
	Play(path string) error
	Stop()
}

// Confirmer asks the operator a yes/no question and blocks for the answer.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Remover deletes a file from disk.
type Remover interface {
	Remove(path string) error
}

// RemoveFunc adapts a function to Remover.
type RemoveFunc func(path string) error

func (f RemoveFunc) Remove(path string) error { return f(path) }

// Input yields one command per call and blocks until there is one.
type Input interface {
	Next(ctx context.Context) (Command, error)
}

// Renderer draws a view of the session.
type Renderer interface {
	Draw(View) error
}

// Playback is what the player is doing. Index refers to the current group
// and is -1 when nothing there is playing.
type Playback struct {
	Playing bool
	Path    string
	Index   int
}

// Pending is the intent to start playing the first track of group Target
// when we arrive there.
type Pending struct {
	Active bool
	Target int
}

// State is the controller's full state. It is exported for front ends and
// tests; only the controller mutates it.
type State struct {
	GroupIndex int
	Selection  int
	Playback   Playback
	UserPaused bool
	Pending    Pending
	Done       bool
}

// Row is one file of the current group as a front end should show it.
type Row struct {
	Number   int
	Artist   string
	Title    string
	Album    string
	Duration string
	Path     string
	Size     int64
	Match    int
	Selected bool
	Playing  bool
}

// View is everything a front end needs to draw the session.
type View struct {
	GroupIndex  int
	TotalGroups int
	Rows        []Row
	PlayingPath string
	Status      string
	Done        bool
}
