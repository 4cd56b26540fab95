package cmd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"

	"floorline/internal/domain"
)

// SessionsCloseCmd abandons a session from the command line.
type SessionsCloseCmd struct {
	ID     string `arg:"" help:"ID of the session to close"`
	Reason string `help:"Abandon reason" enum:"worker_choice,expired" default:"worker_choice"`
	Yes    bool   `help:"Skip confirmation prompt" short:"y"`
}

// Run executes the close command
func (s *SessionsCloseCmd) Run(cli *CLI) error {
	session, err := cli.Container.OwnershipService.GetSession(context.Background(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if session.IsTerminal() {
		fmt.Printf("Session %s is already %s.\n", session.ID, session.Status)
		return nil
	}

	if !s.Yes {
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Abandon session %s (worker %s, station %s)?",
						session.ID, session.WorkerID, session.StationID)).
					Affirmative("Abandon").
					Negative("Cancel").
					Value(&confirmed),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("confirmation failed: %w", err)
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	closed, err := cli.Container.OwnershipService.Abandon(
		context.Background(), s.ID, domain.AbandonReason(s.Reason))
	if err != nil {
		return fmt.Errorf("failed to abandon session: %w", err)
	}

	fmt.Printf("Session %s abandoned (%s).\n", closed.ID, s.Reason)
	return nil
}
