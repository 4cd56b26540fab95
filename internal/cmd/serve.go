package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"floorline/internal/adapters/httpapi"
	"floorline/internal/adapters/sshmon"
	"floorline/internal/config"
	"floorline/internal/logging"
)

// ServeCmd runs the long-lived server processes: HTTP API, idle sweep,
// and (unless disabled) the SSH floor monitor.
type ServeCmd struct {
	HTTPAddr string `help:"HTTP listen address" default:"${http_addr}"`
	SSHAddr  string `help:"SSH monitor listen address" default:"${ssh_addr}"`
	NoSSH    bool   `help:"Disable the SSH floor monitor"`
}

// Run executes the serve command
func (s *ServeCmd) Run(cli *CLI) error {
	settings := cli.settings

	httpAddr := s.HTTPAddr
	if httpAddr == config.DefaultHTTPAddr && settings.HTTPAddr != "" {
		httpAddr = settings.HTTPAddr
	}
	sshAddr := s.SSHAddr
	if sshAddr == config.DefaultSSHAddr && settings.SSHAddr != "" {
		sshAddr = settings.SSHAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := httpapi.NewServer(
		cli.Container.OwnershipService,
		cli.Container.StatusService,
		cli.Container.WipService,
		cli.Container.Hub,
		settings.HeartbeatIntervalOrDefault(),
		settings.IdleThresholdOrDefault(),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return api.Serve(gctx, httpAddr)
	})

	g.Go(func() error {
		cli.Container.Sweeper.Run(gctx)
		return nil
	})

	if !s.NoSSH {
		monitor, err := sshmon.NewServer(sshAddr, cli.Container.Repository, settings.IdleThresholdOrDefault())
		if err != nil {
			return err
		}
		g.Go(func() error {
			return monitor.Serve(gctx)
		})
	}

	logging.Logger.Info("floorline server started",
		"http_addr", httpAddr,
		"ssh_enabled", !s.NoSSH)

	return g.Wait()
}
