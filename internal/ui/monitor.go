package ui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"floorline/internal/domain"
	"floorline/internal/logging"
	"floorline/internal/ports"
	"floorline/internal/theme"
)

const refreshInterval = 2 * time.Second

// floorRow is one active session rendered on the monitor.
type floorRow struct {
	SessionID   string
	WorkerCode  string
	WorkerName  string
	StationCode string
	StatusCode  string
	Good        int
	Scrap       int
	IdleFor     time.Duration
	Stale       bool
}

type refreshTickMsg time.Time

type sessionsLoadedMsg struct {
	rows []floorRow
	err  error
}

// KeyMap holds the monitor's keyboard shortcuts.
type KeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap creates a new KeyMap
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Monitor is a read-only floor view: every active session with its
// worker, station, declared status, and running totals. It never mutates
// state; all writes go through the HTTP surface.
type Monitor struct {
	repo          ports.Repository
	idleThreshold time.Duration
	keys          KeyMap

	rows   []floorRow
	err    error
	width  int
	height int
}

// NewMonitor creates a new Monitor
func NewMonitor(repo ports.Repository, idleThreshold time.Duration) *Monitor {
	return &Monitor{
		repo:          repo,
		idleThreshold: idleThreshold,
		keys:          DefaultKeyMap(),
	}
}

// Init implements tea.Model
func (m *Monitor) Init() tea.Cmd {
	return tea.Batch(m.loadSessions(), m.tick())
}

// Update implements tea.Model
func (m *Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.loadSessions()
		}
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.loadSessions(), m.tick())

	case sessionsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.rows = msg.rows
		return m, nil
	}
	return m, nil
}

// View implements tea.Model
func (m *Monitor) View() string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("floorline: active sessions"))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	if len(m.rows) == 0 {
		b.WriteString(theme.MutedStyle.Render("no active sessions"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderTable())
	}

	b.WriteString(theme.HelpStyle.Render("r refresh • q quit"))
	return b.String()
}

func (m *Monitor) renderTable() string {
	header := fmt.Sprintf("%-10s %-20s %-10s %-12s %6s %6s %8s",
		"WORKER", "NAME", "STATION", "STATUS", "GOOD", "SCRAP", "IDLE")

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render(header))
	b.WriteString("\n")

	for _, row := range m.rows {
		status := row.StatusCode
		if status == "" {
			status = "-"
		}
		line := fmt.Sprintf("%-10s %-20s %-10s %-12s %6d %6d %8s",
			truncate(row.WorkerCode, 10),
			truncate(row.WorkerName, 20),
			truncate(row.StationCode, 10),
			truncate(status, 12),
			row.Good,
			row.Scrap,
			formatIdle(row.IdleFor))

		style := theme.StatusStyle(row.StatusCode)
		if row.Stale {
			style = lipgloss.NewStyle().Foreground(theme.ColorStale)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Monitor) tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// loadSessions reads the active sessions and resolves their display
// fields. Lookups are read-only and failures degrade to placeholders so
// one missing catalog row never blanks the whole board.
func (m *Monitor) loadSessions() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		sessions, err := m.repo.ListSessions(ctx, true)
		if err != nil {
			return sessionsLoadedMsg{err: err}
		}

		now := time.Now().UTC()
		rows := make([]floorRow, 0, len(sessions))
		for i := range sessions {
			rows = append(rows, m.buildRow(ctx, &sessions[i], now))
		}

		sort.Slice(rows, func(i, j int) bool {
			return rows[i].StationCode < rows[j].StationCode
		})
		return sessionsLoadedMsg{rows: rows}
	}
}

func (m *Monitor) buildRow(ctx context.Context, session *domain.Session, now time.Time) floorRow {
	row := floorRow{
		SessionID: session.ID,
		Good:      session.TotalGood,
		Scrap:     session.TotalScrap,
		IdleFor:   now.Sub(session.IdleSince()),
		Stale:     now.Sub(session.IdleSince()) > m.idleThreshold,
	}

	if worker, err := m.repo.GetWorker(ctx, session.WorkerID); err == nil {
		row.WorkerCode = worker.Code
		row.WorkerName = worker.Name
	} else {
		logging.Logger.Debug("monitor worker lookup failed",
			"worker", session.WorkerID, "error", err)
		row.WorkerCode = session.WorkerID
	}

	if station, err := m.repo.GetStation(ctx, session.StationID); err == nil {
		row.StationCode = station.Code
	} else {
		row.StationCode = session.StationID
	}

	row.StatusCode = m.currentStatusCode(ctx, session)
	return row
}

// currentStatusCode resolves the code of the session's open status event.
func (m *Monitor) currentStatusCode(ctx context.Context, session *domain.Session) string {
	if session.CurrentStatusID == "" {
		return ""
	}
	events, err := m.repo.ListStatusEvents(ctx, session.ID)
	if err != nil {
		return ""
	}
	for i := range events {
		if events[i].ID == session.CurrentStatusID {
			def, err := m.repo.GetStatusDefinition(ctx, events[i].StatusDefinitionID)
			if err != nil {
				return ""
			}
			return def.Code
		}
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return s[:max]
	}
	return s[:max-1] + "…"
}

func formatIdle(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
