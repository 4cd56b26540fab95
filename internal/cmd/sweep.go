package cmd

import (
	"context"
	"errors"
	"fmt"
)

// SweepCmd runs one idle-sweep round and exits. Useful for cron-style
// deployments that prefer not to run the server's built-in loop.
type SweepCmd struct{}

// Run executes the sweep command
func (s *SweepCmd) Run(cli *CLI) error {
	report := cli.Container.Sweeper.SweepOnce(context.Background())

	fmt.Printf("Scanned: %d\nClosed: %d\nFailed: %d\n",
		report.Scanned, report.Closed, len(report.Errors))

	if len(report.Errors) > 0 {
		return errors.Join(report.Errors...)
	}
	return nil
}
