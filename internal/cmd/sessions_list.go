package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// SessionsListCmd lists sessions
type SessionsListCmd struct {
	Active bool   `help:"Show only active sessions"`
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the list command
func (s *SessionsListCmd) Run(cli *CLI) error {
	sessions, err := cli.Container.OwnershipService.ListSessions(context.Background(), s.Active)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if s.Format == "json" {
		data, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("%-36s %-12s %-12s %-10s %6s %6s %-20s\n",
		"ID", "WORKER", "STATION", "STATUS", "GOOD", "SCRAP", "LAST SEEN")
	for i := range sessions {
		sess := &sessions[i]
		fmt.Printf("%-36s %-12s %-12s %-10s %6d %6d %-20s\n",
			sess.ID,
			sess.WorkerID,
			sess.StationID,
			sess.Status,
			sess.TotalGood,
			sess.TotalScrap,
			sess.IdleSince().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}
