package cmd

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"floorline/internal/config"
	"floorline/internal/logging"
)

// CLI represents the command-line interface structure
type CLI struct {
	Version   kong.VersionFlag `help:"Show version information"`
	Debug     bool             `help:"Enable debug logging" short:"d"`
	DebugFile string           `help:"Custom path for debug log file"`
	DB        string           `help:"Database file path (overrides settings.json)"`

	Serve    ServeCmd    `cmd:"serve" help:"Run the API server, idle sweep, and SSH floor monitor" default:"1"`
	Sweep    SweepCmd    `cmd:"sweep" help:"Run a single idle-sweep round and exit"`
	Monitor  MonitorCmd  `cmd:"monitor" help:"Open the floor monitor TUI locally"`
	Sessions SessionsCmd `cmd:"sessions" help:"Inspect and manage sessions (list, view, close)"`
	Seed     SeedCmd     `cmd:"seed" help:"Seed reference data (workers, stations, statuses, demo job)"`

	// Internal fields (not flags)
	Container *Container       `kong:"-"`
	settings  *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	// Precedence: CLI flags > env vars > settings.json > defaults
	if !c.Debug {
		if _, hasEnv := os.LookupEnv("FLOORLINE_DEBUG"); !hasEnv {
			if c.settings != nil && c.settings.Debug != nil && *c.settings.Debug {
				c.Debug = true
			}
		}
	}

	if err := logging.Initialize(c.Debug, c.DebugFile); err != nil {
		return err
	}

	if c.settings == nil {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		c.settings = settings
	}

	if c.DB != "" {
		c.settings.DBPath = config.ExpandPath(c.DB)
	}

	container, err := NewContainer(c.settings)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}
