// Package tui provides the Bubble Tea replay viewer for recorded sessions.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codewalk-dev/codewalk/internal/playback"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Replay / interactive mode badge in the title bar
	replayBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("28")).
			Padding(0, 1)

	interactiveBadge = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("214")).
				Padding(0, 1)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// fixed rows around the code pane: title, progress, status bar
const chromeRows = 3

type tickMsg time.Time

// Model is the root Bubble Tea model for the replay viewer.
type Model struct {
	player   *playback.Player
	title    string
	seekStep int64

	viewport viewport.Model
	progress progress.Model
	editor   textarea.Model

	status   playback.Status
	width    int
	height   int
	ready    bool
	lastCode string
}

// New creates a replay viewer for a prepared player. The title is usually the
// session id or source filename; seekStep is the arrow-key distance in ms.
func New(p *playback.Player, title string, seekStep int64) Model {
	ed := textarea.New()
	ed.CharLimit = 0
	return Model{
		player:   p,
		title:    title,
		seekStep: seekStep,
		progress: progress.New(progress.WithDefaultGradient()),
		editor:   ed,
		status:   p.Status(),
	}
}

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return tea.Batch(tick(), textarea.Blink) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		paneHeight := m.height - chromeRows
		if paneHeight < 1 {
			paneHeight = 1
		}
		m.viewport = viewport.New(m.width, paneHeight)
		m.viewport.SetContent(m.status.Code)
		m.editor.SetWidth(m.width)
		m.editor.SetHeight(paneHeight)
		m.progress.Width = m.width - 22
		if m.progress.Width < 10 {
			m.progress.Width = 10
		}
		return m, nil

	case tickMsg:
		m.status = m.player.Status()
		if !m.status.Interactive && m.status.Code != m.lastCode {
			m.lastCode = m.status.Code
			m.viewport.SetContent(m.status.Code)
			m.viewport.GotoBottom()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.status.Interactive {
		switch msg.String() {
		case "ctrl+c":
			m.player.Close()
			return m, tea.Quit
		case "ctrl+k":
			m.player.SetUserCode(m.editor.Value())
			if m.player.ResumeKeepEdits() {
				m.editor.Blur()
				m.status = m.player.Status()
			}
			return m, nil
		case "ctrl+r", "esc":
			if m.player.ResumeOriginal() {
				m.editor.Blur()
				m.status = m.player.Status()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		m.player.SetUserCode(m.editor.Value())
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.player.Close()
		return m, tea.Quit
	case " ":
		if m.status.Playing {
			m.player.Pause()
		} else {
			m.player.Play()
		}
	case "left":
		m.player.Seek(m.status.Time - m.seekStep)
	case "right":
		m.player.Seek(m.status.Time + m.seekStep)
	case "home":
		m.player.Seek(0)
	case "end":
		m.player.Seek(m.status.Duration)
	case "e":
		if m.player.EnterInteractive() {
			m.status = m.player.Status()
			m.editor.SetValue(m.status.Code)
			return m, m.editor.Focus()
		}
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.status = m.player.Status()
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	// ── Row 1: title bar ──────────────────────────────────────────────────────
	badge := replayBadge.Render("REPLAY")
	if m.status.Interactive {
		badge = interactiveBadge.Render("INTERACTIVE")
	} else if !m.status.Playing {
		badge = dimStyle.Render(" paused ")
	}
	title := titleStyle.Width(m.width - lipgloss.Width(badge)).Render("codewalk  " + m.title)
	titleRow := lipgloss.JoinHorizontal(lipgloss.Top, title, badge)

	// ── Row 2…N-2: code pane ──────────────────────────────────────────────────
	pane := m.viewport.View()
	if m.status.Interactive {
		pane = m.editor.View()
	}

	// ── Row N-1: progress ─────────────────────────────────────────────────────
	frac := 0.0
	if m.status.Duration > 0 {
		frac = float64(m.status.Time) / float64(m.status.Duration)
	}
	clock := timeStyle.Render(fmt.Sprintf(" %s / %s",
		formatClock(m.status.Time), formatClock(m.status.Duration)))
	progressRow := m.progress.ViewAs(frac) + clock

	// ── Row N: status / hint bar ──────────────────────────────────────────────
	hint := "  space play/pause  ←/→ seek  home/end  e edit  q quit"
	if m.status.Interactive {
		hint = "  type to experiment  ctrl+k resume keeping edits  ctrl+r restore recording"
	}
	pad := m.width - lipgloss.Width(hint) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad))

	return lipgloss.JoinVertical(lipgloss.Left, titleRow, pane, progressRow, statusBar)
}

// formatClock renders milliseconds as m:ss.t.
func formatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	tenths := (ms % 1000) / 100
	secs := ms / 1000
	return fmt.Sprintf("%d:%02d.%d", secs/60, secs%60, tenths)
}

// Run starts the replay viewer and blocks until the user quits.
func Run(p *playback.Player, title string, seekStep int64) error {
	prog := tea.NewProgram(New(p, title, seekStep), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
