package ui

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	"github.com/jdefrancesco/tuneDitto/internal/session"
	"github.com/jdefrancesco/tuneDitto/internal/tfile"
	"github.com/jdefrancesco/tuneDitto/internal/tlog"
	"github.com/jdefrancesco/tuneDitto/internal/tmap"
	"github.com/jdefrancesco/tuneDitto/pkg/utils"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Styles using Lip Gloss
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("35")).
			Padding(0, 1)

	normalFileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	playingFileStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("42")).
				Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("240")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// Column widths for everything but the path, which gets what is left.
const (
	colMarker   = 2
	colNumber   = 3
	colArtist   = 22
	colTitle    = 30
	colDuration = 6
	colSize     = 10
	colMatch    = 6
	minPathCol  = 20

	defaultWidth  = 120
	defaultHeight = 24
)

// Model holds the state of the TUI. Review state lives in the controller;
// the model only adds the delete dialog and the terminal size.
type Model struct {
	ctrl          *session.Controller
	keys          keyMap
	help          help.Model
	width         int
	height        int
	showingDialog bool
	dialogFile    string
	dialogInput   string
	dialogCode    string
	dialogError   string
	quitting      bool
}

// Program instance to allow stopping from main
var Program *tea.Program

// confirmed is handed to the controller. The typed code dialog has already
// asked the user by the time a delete reaches it.
var confirmed = session.ConfirmFunc(func(string) bool { return true })

// NewController builds a controller whose deletes are gated by the
// model's confirmation dialog.
func NewController(groups []*tmap.Group, player session.Player, remover session.Remover) *session.Controller {
	return session.New(groups, player, confirmed, remover)
}

// LaunchTUI runs the review session full screen and returns the
// controller so the caller can report what was deleted.
func LaunchTUI(groups []*tmap.Group, player session.Player, remover session.Remover) (*session.Controller, error) {
	ctrl := NewController(groups, player, remover)
	defer player.Stop()

	if ctrl.Done() {
		return ctrl, nil
	}

	Program = tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	if _, err := Program.Run(); err != nil {
		return ctrl, fmt.Errorf("running tui: %w", err)
	}
	return ctrl, nil
}

// NewModel wraps a controller for bubbletea.
func NewModel(ctrl *session.Controller) Model {
	return Model{
		ctrl:   ctrl,
		keys:   defaultKeyMap(),
		help:   help.New(),
		width:  defaultWidth,
		height: defaultHeight,
	}
}

// Init is called when the program starts
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showingDialog {
		return m.updateDialog(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.ctrl.Handle(session.Command{Kind: session.Quit})

		case key.Matches(msg, m.keys.Up):
			m.ctrl.Handle(session.Command{Kind: session.MoveUp})

		case key.Matches(msg, m.keys.Down):
			m.ctrl.Handle(session.Command{Kind: session.MoveDown})

		case key.Matches(msg, m.keys.Prev):
			m.ctrl.Handle(session.Command{Kind: session.PrevGroup})

		case key.Matches(msg, m.keys.Next):
			m.ctrl.Handle(session.Command{Kind: session.NextGroup})

		case key.Matches(msg, m.keys.Play):
			m.ctrl.Handle(session.Command{Kind: session.TogglePlay})

		case key.Matches(msg, m.keys.Select):
			m.ctrl.Handle(session.SelectRow(int(msg.String()[0] - '0')))

		case key.Matches(msg, m.keys.Delete):
			m = m.openDialog()

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	if m.ctrl.Done() {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// openDialog asks for a confirmation code before the selected file is
// deleted.
func (m Model) openDialog() Model {
	v := m.ctrl.View()
	for _, row := range v.Rows {
		if row.Selected {
			m.showingDialog = true
			m.dialogFile = row.Path
			m.dialogCode = GenConfirmationCode()
			m.dialogInput = ""
			m.dialogError = ""
			break
		}
	}
	return m
}

func (m Model) closeDialog() Model {
	m.showingDialog = false
	m.dialogFile = ""
	m.dialogInput = ""
	m.dialogError = ""
	return m
}

// updateDialog handles updates when the delete confirmation dialog is shown
func (m Model) updateDialog(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m = m.closeDialog()

		case "enter":
			if m.dialogInput != m.dialogCode {
				m.dialogError = "Incorrect code. Try again."
				m.dialogInput = ""
				break
			}
			tlog.Tlogger.Debugf("Confirmed delete of %s", m.dialogFile)
			m = m.closeDialog()
			m.ctrl.Handle(session.Command{Kind: session.DeleteSelected})
			if m.ctrl.Done() {
				m.quitting = true
				return m, tea.Quit
			}

		case "backspace":
			if len(m.dialogInput) > 0 {
				m.dialogInput = m.dialogInput[:len(m.dialogInput)-1]
			}

		default:
			// Add character to input if it's alphanumeric and within length
			s := msg.String()
			if len(s) == 1 && len(m.dialogInput) < len(m.dialogCode) && utils.IsAlphanumeric(rune(s[0])) {
				m.dialogInput += s
			}
		}
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.showingDialog {
		return m.renderDialog()
	}

	v := m.ctrl.View()
	var b strings.Builder

	title := titleStyle.Render(fmt.Sprintf("tuneDitto: Group %d of %d", v.GroupIndex+1, v.TotalGroups))
	b.WriteString(title + "\n\n")

	pathWidth := m.pathWidth()
	b.WriteString(headerStyle.Render(m.formatLine("", "#", "Artist", "Title", "Time", "Size", "Match", "File Path", pathWidth)))
	b.WriteString("\n")

	for _, row := range v.Rows {
		b.WriteString(m.renderRow(row, pathWidth))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if v.PlayingPath != "" {
		b.WriteString(playingFileStyle.Render("Playing: " + runewidth.Truncate(filepath.Base(v.PlayingPath), pathWidth+colTitle, "…")))
	} else {
		b.WriteString(helpStyle.Render("Stopped"))
	}
	b.WriteString("\n")

	if v.Status != "" {
		b.WriteString(statusStyle.Render(v.Status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return borderStyle.Render(b.String())
}

// pathWidth is how much of the line is left for the file path.
func (m Model) pathWidth() int {
	fixed := colMarker + colNumber + colArtist + colTitle + colDuration + colSize + colMatch
	// Column gaps plus the border and padding.
	fixed += 7 + 4
	return max(m.width-fixed, minPathCol)
}

func (m Model) formatLine(marker, num, artist, title, dur, size, match, path string, pathWidth int) string {
	cols := []string{
		runewidth.FillRight(marker, colMarker),
		runewidth.FillLeft(num, colNumber),
		fit(artist, colArtist),
		fit(title, colTitle),
		runewidth.FillLeft(dur, colDuration),
		runewidth.FillLeft(size, colSize),
		runewidth.FillLeft(match, colMatch),
		truncateLeft(path, pathWidth),
	}
	return strings.Join(cols, " ")
}

// renderRow renders a single file of the current group
func (m Model) renderRow(row session.Row, pathWidth int) string {
	marker := ""
	if row.Playing {
		marker = "▶"
	}

	line := m.formatLine(
		marker,
		fmt.Sprintf("%d", row.Number),
		row.Artist,
		row.Title,
		row.Duration,
		tfile.FormatSize(row.Size),
		fmt.Sprintf("%d%%", row.Match),
		row.Path,
		pathWidth,
	)

	style := normalFileStyle
	if row.Playing {
		style = playingFileStyle
	}
	if row.Selected {
		style = style.Inherit(selectedStyle)
	}
	return style.Render(line)
}

// fit truncates s to width cells and pads it out so columns line up.
func fit(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// truncateLeft keeps the end of a path, which is the part that tells
// copies apart.
func truncateLeft(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for i := range r {
		tail := string(r[i:])
		if runewidth.StringWidth(tail)+1 <= width {
			return "…" + tail
		}
	}
	return ""
}

// renderDialog renders the delete confirmation dialog
func (m Model) renderDialog() string {
	var b strings.Builder

	dialogStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(1, 2).
		Width(60)

	b.WriteString("Type the confirmation code below to delete:\n\n")
	b.WriteString(runewidth.Truncate(filepath.Base(m.dialogFile), 54, "…"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Render(m.dialogCode))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Code: %s\n", m.dialogInput))

	if m.dialogError != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(m.dialogError))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("[enter=confirm, esc=cancel]"))

	return lipgloss.Place(
		max(m.width, 80), max(m.height, 24),
		lipgloss.Center, lipgloss.Center,
		dialogStyle.Render(b.String()),
	)
}

// GenConfirmationCode returns a random alphanumeric code the user has to
// type back before a file is deleted.
func GenConfirmationCode() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// #nosec G404 -- not crypto, just UX.
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	length := r.Intn(4) + 5 // 5 to 8 characters
	code := make([]byte, length)
	for i := range code {
		code[i] = charset[r.Intn(len(charset))]
	}
	return string(code)
}
