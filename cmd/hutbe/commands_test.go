package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/hutbe/internal/config"
	"github.com/bilgisen/hutbe/internal/feed"
	"github.com/bilgisen/hutbe/internal/lock"
	"github.com/bilgisen/hutbe/internal/mirror"
	"github.com/bilgisen/hutbe/internal/models"
	"github.com/bilgisen/hutbe/internal/updater"
)

type staticSource struct {
	language string
	err      error
}

func (s *staticSource) Language() string { return s.language }

func (s *staticSource) FetchLatest(ctx context.Context) (models.Descriptor, error) {
	if s.err != nil {
		return models.Descriptor{}, s.err
	}
	return models.Descriptor{
		Title:        "Hutbe",
		Language:     s.language,
		Date:         time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC),
		SourcePDFURL: "https://upstream.example.com/" + s.language + ".pdf",
	}, nil
}

func (s *staticSource) FetchAll(ctx context.Context, maxPages int) ([]models.Descriptor, error) {
	d, err := s.FetchLatest(ctx)
	if err != nil {
		return nil, err
	}
	return []models.Descriptor{d}, nil
}

func testUpdater(t *testing.T, locker lock.Locker, sources ...feed.Source) *updater.Updater {
	t.Helper()
	u, err := updater.New(updater.Options{
		Sources:     sources,
		ArchivePath: filepath.Join(t.TempDir(), "hutbes.json"),
		Locker:      locker,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	return u
}

func TestRunOnceExitStatus(t *testing.T) {
	ctx := context.Background()
	down := errors.New("down")

	t.Run("partial failure succeeds", func(t *testing.T) {
		u := testUpdater(t, lock.NewMemoryLock(), &staticSource{language: "tr"}, &staticSource{language: "de", err: down})
		assert.NoError(t, runOnce(ctx, u, updater.RunOptions{}, zerolog.Nop()))
	})

	t.Run("total failure fails", func(t *testing.T) {
		u := testUpdater(t, lock.NewMemoryLock(), &staticSource{language: "tr", err: down}, &staticSource{language: "de", err: down})
		err := runOnce(ctx, u, updater.RunOptions{}, zerolog.Nop())
		assert.True(t, errors.Is(err, errAllFailed))
	})

	t.Run("locked run is skipped", func(t *testing.T) {
		locker := lock.NewMemoryLock()
		release, err := locker.Acquire(ctx)
		require.NoError(t, err)
		defer release()

		u := testUpdater(t, locker, &staticSource{language: "tr"})
		assert.NoError(t, runOnce(ctx, u, updater.RunOptions{}, zerolog.Nop()))
	})
}

func TestNewMirror(t *testing.T) {
	cfg := &config.Config{
		OutputDir:     t.TempDir(),
		PublicBaseURL: "https://user.github.io/repo",
		MaxFileSize:   1 << 20,
	}
	fetcher := feed.NewFetcher(time.Second)

	cfg.MirrorMode = config.MirrorNone
	m, d, err := newMirror(context.Background(), cfg, fetcher)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Nil(t, d)

	cfg.MirrorMode = config.MirrorFS
	m, d, err = newMirror(context.Background(), cfg, fetcher)
	require.NoError(t, err)
	assert.IsType(t, &mirror.FSMirror{}, m)
	assert.NotNil(t, d)
	assert.Equal(t, "https://user.github.io/repo/pdfs/tr/2024/a.pdf", m.URL("tr/2024/a.pdf"))
}

func TestNewLockerDefaultsToFile(t *testing.T) {
	cfg := &config.Config{OutputDir: t.TempDir(), HutbesFile: "hutbes.json", LockTTL: time.Hour}
	l, closeFn, err := newLocker(cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &lock.FileLock{}, l)
}
