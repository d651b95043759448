package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/lox/runsafetonight/internal/config"
)

type CLI struct {
	LogLevel  string `help:"Override LOG_LEVEL (debug, info, warn, error)."`
	LogFormat string `help:"Override LOG_FORMAT (json, text)."`

	Serve      ServeCmd      `cmd:"" default:"1" help:"Serve the API over HTTP."`
	Lambda     LambdaCmd     `cmd:"" help:"Serve the API from AWS Lambda behind API Gateway."`
	Conditions ConditionsCmd `cmd:"" help:"Print tonight's running conditions."`
	Pulse      PulseCmd      `cmd:"" help:"Print the community pulse."`
	Dashboard  DashboardCmd  `cmd:"" help:"Render the landing page dashboard in the terminal."`
	Readiness  ReadinessCmd  `cmd:"" help:"Score a night readiness check."`
	Probe      ProbeCmd      `cmd:"" help:"Wait for a deployment to report healthy."`
	Migrate    MigrateCmd    `cmd:"" help:"Apply database migrations."`
}

// app is shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "runsafe: %v\n", err)
		os.Exit(1)
	}
}

// run parses args before reading the environment, so --help and usage
// errors work even when the configuration is invalid.
func run(args []string, options ...kong.Option) error {
	// Lambda invokes the binary without arguments.
	if len(args) == 0 && isLambdaEnvironment() {
		args = []string{"lambda"}
	}

	var cli CLI
	parser, err := kong.New(&cli, append([]kong.Option{
		kong.Name("runsafe"),
		kong.Description("RunSafeTonight: night running conditions, community pulse and readiness."),
		kong.UsageOnError(),
	}, options...)...)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	parser.FatalIfErrorf(err)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.LogFormat != "" {
		cfg.LogFormat = cli.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a := &app{cfg: cfg, logger: cfg.NewLogger(os.Stderr)}
	slog.SetDefault(a.logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	if err := kctx.Run(a); err != nil {
		return fmt.Errorf("%s: %w", kctx.Command(), err)
	}
	return nil
}

func isLambdaEnvironment() bool {
	return os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("_LAMBDA_SERVER_PORT") != ""
}
