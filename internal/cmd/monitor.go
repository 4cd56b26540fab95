package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"floorline/internal/logging"
	"floorline/internal/ui"
)

// MonitorCmd opens the floor monitor TUI on the local terminal.
type MonitorCmd struct{}

// Run executes the monitor command
func (m *MonitorCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting floor monitor TUI")

	p := tea.NewProgram(
		ui.NewMonitor(cli.Container.Repository, cli.settings.IdleThresholdOrDefault()),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		logging.Logger.Error("TUI program error", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
