package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/bilgisen/hutbe/internal/archive"
	"github.com/bilgisen/hutbe/internal/config"
	"github.com/bilgisen/hutbe/internal/feed"
	"github.com/bilgisen/hutbe/internal/lock"
	"github.com/bilgisen/hutbe/internal/logger"
	"github.com/bilgisen/hutbe/internal/prayers"
	"github.com/bilgisen/hutbe/internal/updater"
)

type UpdateCmd struct {
	ForceWrite bool `help:"Rewrite hutbes.json even when nothing new was found."`
}

func (c *UpdateCmd) Run(ctx context.Context, cfg *config.Config) error {
	log := logger.With("updater")

	u, closeFn, err := newUpdater(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeFn()

	return runOnce(ctx, u, updater.RunOptions{ForceWrite: c.ForceWrite}, log)
}

// runOnce maps a run outcome to the exit status the scheduler expects
func runOnce(ctx context.Context, u *updater.Updater, ro updater.RunOptions, log zerolog.Logger) error {
	report, err := u.Run(ctx, ro)
	if errors.Is(err, lock.ErrLocked) {
		log.Warn().Msg("Another update is running, skipping this one")
		return nil
	}
	if err != nil {
		return err
	}
	if report.AllFailed() {
		return fmt.Errorf("%w: %v", errAllFailed, report.Err())
	}
	return nil
}

type PrayersCmd struct{}

func (c *PrayersCmd) Run(ctx context.Context, cfg *config.Config) error {
	log := logger.With("prayers")
	fetcher := feed.NewFetcher(cfg.FetchTimeout)

	m, downloader, err := newMirror(ctx, cfg, fetcher)
	if err != nil {
		return err
	}

	records, err := prayers.Sync(ctx, prayers.Options{
		Path:       cfg.PrayersPath(),
		Prayers:    prayers.Defaults,
		Mirror:     m,
		Downloader: downloader,
		Logger:     log,
	})
	if err != nil {
		return err
	}
	log.Info().Int("prayers", len(records)).Str("path", cfg.PrayersPath()).Msg("prayers.json updated")
	return nil
}

type DaemonCmd struct {
	RunNow bool `help:"Run one update immediately before waiting for the schedule."`
}

func (c *DaemonCmd) Run(ctx context.Context, cfg *config.Config) error {
	log := logger.With("daemon")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	u, closeFn, err := newUpdater(ctx, cfg, logger.With("updater"))
	if err != nil {
		return err
	}
	defer closeFn()

	tick := func() {
		if err := runOnce(ctx, u, updater.RunOptions{}, log); err != nil {
			log.Error().Err(err).Msg("Scheduled update failed")
		}
	}

	// SkipIfStillRunning keeps a slow run from overlapping the next tick
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := scheduler.AddFunc(cfg.Schedule, tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	if c.RunNow {
		tick()
	}

	scheduler.Start()
	log.Info().Str("schedule", cfg.Schedule).Str("timezone", cfg.Timezone).Msg("Waiting for scheduled updates")

	<-ctx.Done()
	log.Info().Msg("Shutting down scheduler...")
	<-scheduler.Stop().Done()
	return nil
}

type CheckCmd struct{}

func (c *CheckCmd) Run(ctx context.Context, cfg *config.Config) error {
	log := logger.With("check")

	a, err := archive.Load(cfg.HutbesPath())
	if err != nil {
		return err
	}
	problems := a.Problems()
	for _, p := range problems {
		log.Error().Err(p).Msg("Archive problem")
	}

	records, err := prayers.Load(cfg.PrayersPath())
	if err != nil {
		return err
	}

	log.Info().
		Int("sermons", a.Len()).
		Int("prayers", len(records)).
		Int("problems", len(problems)).
		Msg("Check finished")

	if len(problems) > 0 {
		return fmt.Errorf("%d problems found in %s", len(problems), cfg.HutbesPath())
	}
	return nil
}
