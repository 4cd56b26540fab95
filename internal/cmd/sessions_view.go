package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"floorline/internal/domain"
)

// SessionsViewCmd views a specific session
type SessionsViewCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
	ID     string `arg:"" help:"ID of the session to view"`
}

// Run executes the view command
func (s *SessionsViewCmd) Run(cli *CLI) error {
	session, err := cli.Container.OwnershipService.GetSession(context.Background(), s.ID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if s.Format == "json" {
		return s.printJSON(session)
	}
	return s.printTable(cli, session)
}

func (s *SessionsViewCmd) printJSON(session *domain.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func (s *SessionsViewCmd) printTable(cli *CLI, session *domain.Session) error {
	fmt.Printf("Session: %s\n", session.ID)
	fmt.Printf("Worker: %s\n", session.WorkerID)
	fmt.Printf("Station: %s\n", session.StationID)
	fmt.Printf("Status: %s\n", session.Status)
	if session.ActiveInstanceID != "" {
		fmt.Printf("Active Instance: %s\n", session.ActiveInstanceID)
	}
	fmt.Printf("Started: %s\n", session.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Last Seen: %s\n", session.IdleSince().Format("2006-01-02 15:04:05"))
	fmt.Printf("Ended: %s\n", formatTimePtr(session.EndedAt))
	fmt.Printf("Forced Close: %s\n", formatTimePtr(session.ForcedClosedAt))
	if session.JobID != "" {
		fmt.Printf("Job: %s\n", session.JobID)
	}
	if session.JobItemID != "" {
		fmt.Printf("Job Item: %s\n", session.JobItemID)
	}
	fmt.Printf("Total Good: %d\n", session.TotalGood)
	fmt.Printf("Total Scrap: %d\n", session.TotalScrap)

	events, err := cli.Container.StatusService.History(context.Background(), session.ID)
	if err != nil {
		return fmt.Errorf("failed to load status history: %w", err)
	}

	if len(events) > 0 {
		fmt.Printf("\nStatus Events:\n")
		for i := range events {
			e := &events[i]
			ended := "open"
			if e.EndedAt != nil {
				ended = e.EndedAt.Format("15:04:05")
			}
			fmt.Printf("  %s  %s → %s  good=%d scrap=%d",
				e.StatusDefinitionID,
				e.StartedAt.Format("15:04:05"),
				ended,
				e.QuantityGood,
				e.QuantityScrap)
			if e.Note != "" {
				fmt.Printf("  note=%q", e.Note)
			}
			fmt.Println()
		}
	}
	return nil
}
