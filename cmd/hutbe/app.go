package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bilgisen/hutbe/internal/config"
	"github.com/bilgisen/hutbe/internal/feed"
	"github.com/bilgisen/hutbe/internal/lock"
	"github.com/bilgisen/hutbe/internal/mirror"
	"github.com/bilgisen/hutbe/internal/updater"
)

// newMirror builds the configured PDF mirror; nil means link upstream directly
func newMirror(ctx context.Context, cfg *config.Config, fetcher *feed.Fetcher) (mirror.Mirror, *mirror.Downloader, error) {
	downloader := mirror.NewDownloader(fetcher.Client(), cfg.MaxFileSize)

	switch cfg.MirrorMode {
	case config.MirrorNone:
		return nil, nil, nil
	case config.MirrorS3:
		m, err := mirror.NewS3Mirror(ctx, mirror.S3Config{
			Endpoint:  cfg.R2EndpointURL(),
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
			PublicURL: cfg.R2PublicURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return m, downloader, nil
	default:
		return mirror.NewFSMirror(cfg.PDFRoot(), cfg.PublicBaseURL), downloader, nil
	}
}

// newLocker picks redis when configured so runs on different hosts exclude each other
func newLocker(cfg *config.Config) (lock.Locker, func() error, error) {
	if cfg.RedisURL == "" {
		return lock.NewFileLock(cfg.LockPath(), cfg.LockTTL), func() error { return nil }, nil
	}
	l, err := lock.NewRedisLock(cfg.RedisURL, "hutbe:lock:"+cfg.HutbesFile, cfg.LockTTL)
	if err != nil {
		return nil, nil, err
	}
	return l, l.Close, nil
}

func newUpdater(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*updater.Updater, func() error, error) {
	fetcher := feed.NewFetcher(cfg.FetchTimeout)

	sources, err := feed.Registry(cfg.UpstreamBaseURL, cfg.Languages, fetcher, log)
	if err != nil {
		return nil, nil, err
	}

	m, downloader, err := newMirror(ctx, cfg, fetcher)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize mirror: %w", err)
	}

	locker, closeLocker, err := newLocker(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize lock: %w", err)
	}

	u, err := updater.New(updater.Options{
		Sources:      sources,
		ArchivePath:  cfg.HutbesPath(),
		Locker:       locker,
		Mirror:       m,
		Downloader:   downloader,
		MaxPages:     cfg.MaxPages,
		FetchTimeout: cfg.FetchTimeout,
		Concurrency:  cfg.MaxConcurrency,
		Logger:       log,
	})
	if err != nil {
		closeLocker()
		return nil, nil, err
	}
	return u, closeLocker, nil
}
