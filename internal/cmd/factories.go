package cmd

import (
	adapterstorage "floorline/internal/adapters/storage"
	"floorline/internal/config"
	"floorline/internal/ports"
	"floorline/internal/services"
	"floorline/internal/takeover"
)

// Container holds all dependencies for the application
type Container struct {
	Settings *config.Settings

	// Services
	OwnershipService *services.OwnershipService
	StatusService    *services.StatusService
	WipService       *services.WipService
	Sweeper          *services.Sweeper

	Hub        *takeover.Hub
	Repository ports.Repository
}

// NewContainer creates a new Container with all dependencies wired
func NewContainer(settings *config.Settings) (*Container, error) {
	dbPath := settings.DBPath
	if dbPath == "" {
		dbPath = config.GetDBPath()
	}

	repo, err := adapterstorage.NewSQLiteRepository(dbPath)
	if err != nil {
		return nil, err
	}

	hub := takeover.NewHub()
	idleThreshold := settings.IdleThresholdOrDefault()

	return &Container{
		Settings:         settings,
		OwnershipService: services.NewOwnershipService(repo, hub, idleThreshold),
		StatusService:    services.NewStatusService(repo),
		WipService:       services.NewWipService(repo),
		Sweeper:          services.NewSweeper(repo, settings.SweepIntervalOrDefault(), idleThreshold),
		Hub:              hub,
		Repository:       repo,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Repository != nil {
		return c.Repository.Close()
	}
	return nil
}
