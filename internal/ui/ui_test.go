package ui

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jdefrancesco/tuneDitto/internal/session"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/tmap"

	tea "github.com/charmbracelet/bubbletea"
)

func TestMain(m *testing.M) {
	tlog.InitializeTlogger("/dev/null")
	os.Exit(m.Run())
}

// TestGenerateConfirmationCodes tests the GenConfirmationCode function
func TestGenerateConfirmationCodes(t *testing.T) {

	for i := range 100 {
		code := GenConfirmationCode()

		if len(code) < 5 || len(code) > 8 {
			t.Errorf("Generated code length out of bounds: got %d, want between 5 and 8", len(code))
		}
		for _, c := range code {
			if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')) {
				t.Errorf("Generated code contains invalid character: %q", c)
			}
		}

		if i%10 == 0 {
			t.Logf("Sample generated code: %s", code)
		}
	}
}

type recordingPlayer struct {
	plays []string
	stops int
}

func (p *recordingPlayer) Play(path string) error {
	p.plays = append(p.plays, path)
	return nil
}

func (p *recordingPlayer) Stop() { p.stops++ }

type fixture struct {
	model   Model
	player  *recordingPlayer
	removed []string
}

// newFixture builds two groups: three copies of one song and a pair of
// another.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	var groups []*tmap.Group
	for g, n := range []int{3, 2} {
		var files []*tfile.Tfile
		for i := range n {
			f, err := tfile.NewTfile(fmt.Sprintf("/music/g%d/copy%d.mp3", g, i), int64(4_000_000+i), time.Time{},
				tfile.Tags{Artist: "Daft Punk", Title: fmt.Sprintf("Track %d", g), Duration: tfile.Known(224)})
			if err != nil {
				t.Fatal(err)
			}
			files = append(files, f)
		}
		grp, err := tmap.NewGroup(files...)
		if err != nil {
			t.Fatal(err)
		}
		groups = append(groups, grp)
	}

	fx := &fixture{player: &recordingPlayer{}}
	remover := session.RemoveFunc(func(path string) error {
		fx.removed = append(fx.removed, path)
		return nil
	})
	fx.model = NewModel(NewController(groups, fx.player, remover))
	return fx
}

func (fx *fixture) send(t *testing.T, msgs ...tea.Msg) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = fx.model.Update(msg)
		m, ok := next.(Model)
		if !ok {
			t.Fatalf("Update returned %T, want Model", next)
		}
		fx.model = m
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDigitPlaysRow(t *testing.T) {
	fx := newFixture(t)
	fx.send(t, runes("2"))

	if len(fx.player.plays) != 1 || fx.player.plays[0] != "/music/g0/copy1.mp3" {
		t.Fatalf("plays = %v, want [/music/g0/copy1.mp3]", fx.player.plays)
	}
	if sel := fx.model.ctrl.State().Selection; sel != 1 {
		t.Fatalf("selection = %d, want 1", sel)
	}
}

func TestArrowsMoveSelectionAndGroups(t *testing.T) {
	fx := newFixture(t)

	fx.send(t, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if sel := fx.model.ctrl.State().Selection; sel != 2 {
		t.Fatalf("selection = %d, want 2", sel)
	}
	fx.send(t, tea.KeyMsg{Type: tea.KeyUp})
	if sel := fx.model.ctrl.State().Selection; sel != 1 {
		t.Fatalf("selection = %d, want 1", sel)
	}

	fx.send(t, tea.KeyMsg{Type: tea.KeyRight})
	if g := fx.model.ctrl.State().GroupIndex; g != 1 {
		t.Fatalf("group = %d, want 1", g)
	}
	fx.send(t, tea.KeyMsg{Type: tea.KeyLeft})
	if g := fx.model.ctrl.State().GroupIndex; g != 0 {
		t.Fatalf("group = %d, want 0", g)
	}
}

func TestEnterTogglesPlayback(t *testing.T) {
	fx := newFixture(t)

	fx.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	if !fx.model.ctrl.State().Playback.Playing {
		t.Fatal("expected playback after enter")
	}
	fx.send(t, tea.KeyMsg{Type: tea.KeyEnter})
	if fx.model.ctrl.State().Playback.Playing {
		t.Fatal("expected playback stopped after second enter")
	}
}

func TestDeleteRequiresConfirmationCode(t *testing.T) {
	fx := newFixture(t)

	fx.send(t, tea.KeyMsg{Type: tea.KeyDelete})
	if !fx.model.showingDialog {
		t.Fatal("expected confirmation dialog")
	}
	if fx.model.dialogFile != "/music/g0/copy0.mp3" {
		t.Fatalf("dialog file = %q", fx.model.dialogFile)
	}

	// A wrong code keeps the dialog up and deletes nothing.
	fx.send(t, runes("!"), tea.KeyMsg{Type: tea.KeyEnter})
	if !fx.model.showingDialog || fx.model.dialogError == "" {
		t.Fatal("expected dialog to stay open with an error")
	}
	if len(fx.removed) != 0 {
		t.Fatalf("removed %v before confirmation", fx.removed)
	}

	for _, r := range fx.model.dialogCode {
		fx.send(t, runes(string(r)))
	}
	fx.send(t, tea.KeyMsg{Type: tea.KeyEnter})

	if fx.model.showingDialog {
		t.Fatal("dialog should close after the right code")
	}
	if len(fx.removed) != 1 || fx.removed[0] != "/music/g0/copy0.mp3" {
		t.Fatalf("removed = %v", fx.removed)
	}
	if n, _ := fx.model.ctrl.Deleted(); n != 1 {
		t.Fatalf("deleted count = %d, want 1", n)
	}
	if !strings.Contains(fx.model.View(), "Deleted.") {
		t.Fatalf("expected status in view:\n%s", fx.model.View())
	}
}

func TestEscCancelsDelete(t *testing.T) {
	fx := newFixture(t)

	fx.send(t, tea.KeyMsg{Type: tea.KeyDelete}, runes("q"), tea.KeyMsg{Type: tea.KeyEsc})
	if fx.model.showingDialog {
		t.Fatal("esc should close the dialog")
	}
	if fx.model.ctrl.Done() {
		t.Fatal("keys typed into the dialog must not reach the session")
	}
	if len(fx.removed) != 0 {
		t.Fatalf("removed = %v, want nothing", fx.removed)
	}
}

func TestQuitEndsProgram(t *testing.T) {
	fx := newFixture(t)

	cmd := fx.send(t, runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !fx.model.ctrl.Done() || !fx.model.quitting {
		t.Fatal("expected session done after q")
	}
	if fx.model.View() != "" {
		t.Fatal("view should be empty once quitting")
	}
}

func TestViewShowsGroup(t *testing.T) {
	fx := newFixture(t)
	fx.send(t, tea.WindowSizeMsg{Width: 160, Height: 40}, runes("1"))

	out := fx.model.View()
	for _, want := range []string{"Group 1 of 2", "Daft Punk", "Track 0", "03:44", "copy2.mp3", "Playing: copy0.mp3"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"/short.mp3", 20, "/short.mp3"},
		{"/music/artist/album/song.mp3", 10, "…/song.mp3"},
		{"/music", 0, ""},
	}

	for _, tt := range tests {
		if got := truncateLeft(tt.in, tt.width); got != tt.want {
			t.Errorf("truncateLeft(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
