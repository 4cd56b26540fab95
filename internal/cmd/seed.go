package cmd

import (
	"context"
	"fmt"
)

// SeedCmd seeds reference data into the database.
type SeedCmd struct {
	Demo bool `help:"Also create a demo line (workers, stations, one routed job)"`
}

type seeder interface {
	Seed(ctx context.Context, demo bool) error
}

// Run executes the seed command
func (s *SeedCmd) Run(cli *CLI) error {
	repo, ok := cli.Container.Repository.(seeder)
	if !ok {
		return fmt.Errorf("storage backend does not support seeding")
	}

	if err := repo.Seed(context.Background(), s.Demo); err != nil {
		return err
	}

	fmt.Println("Reference data seeded.")
	if s.Demo {
		fmt.Println("Demo line created: stations CUT-01, SEW-01, PCK-01; workers W-100, W-101; job JOB-1000.")
	}
	return nil
}
