package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/bilgisen/hutbe/internal/config"
	"github.com/bilgisen/hutbe/internal/logger"
)

// errAllFailed makes the scheduler see a red run when no language could be fetched
var errAllFailed = errors.New("every language failed")

type CLI struct {
	Update  UpdateCmd  `cmd:"" default:"1" help:"Fetch this week's sermons and append them to hutbes.json."`
	Prayers PrayersCmd `cmd:"" help:"Rebuild prayers.json from the standard prayer documents."`
	Daemon  DaemonCmd  `cmd:"" help:"Run updates on a cron schedule until interrupted."`
	Check   CheckCmd   `cmd:"" help:"Validate hutbes.json and prayers.json."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("hutbe"),
		kong.Description("Static JSON archive of Friday khutbah publications."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: cfg.LogFile,
		Pretty: cfg.LogPretty,
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(cfg)
	stop()
	if err != nil {
		logger.Get().Error().Err(err).Str("command", kctx.Command()).Msg("Command failed")
		os.Exit(1)
	}
}
