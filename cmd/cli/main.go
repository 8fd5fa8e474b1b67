package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/cfauth/cmd/cli/internal/commands"
	"github.com/wolfeidau/cfauth/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login     commands.LoginCmd  `cmd:"" help:"Log in to Vault with Cloud Foundry instance credentials"`
		Sign      commands.SignCmd   `cmd:"" help:"Print a signed login request without sending it"`
		Verify    commands.VerifyCmd `cmd:"" help:"Verify a login signature against an instance certificate"`
		Read      commands.ReadCmd   `cmd:"" help:"Log in and read a Vault path"`
		Debug     bool               `help:"Enable debug mode."`
		Telemetry bool               `help:"Export traces and metrics over OTLP." env:"CFAUTH_TELEMETRY"`
		Version   kong.VersionFlag
	}
)

func main() {
	cmd := kong.Parse(&cli,
		kong.Name("cfauth"),
		kong.Description("Vault login for Cloud Foundry application instances."),
		kong.Vars{
			"version": version,
		})

	log.Logger = logger.Setup(cli.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.BindTo(log.Logger.WithContext(ctx), (*context.Context)(nil))

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Telemetry: cli.Telemetry, Version: version})
	cmd.FatalIfErrorf(err)
}
