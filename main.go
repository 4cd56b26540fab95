package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"floorline/internal/cmd"
	"floorline/internal/config"
	"floorline/internal/version"
)

func main() {
	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cli cmd.CLI
	cli.SetSettings(settings)

	ctx := kong.Parse(&cli,
		kong.Name("floorline"),
		kong.Description(version.Tagline),
		kong.UsageOnError(),
		kong.Vars{
			"version":   version.Info(),
			"http_addr": config.DefaultHTTPAddr,
			"ssh_addr":  config.DefaultSSHAddr,
		},
	)
	defer cli.Close()

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
