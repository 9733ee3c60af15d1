// Package updater runs the weekly archive update: fetch every language,
// merge new sermons into hutbes.json and write it back atomically.
package updater

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bilgisen/hutbe/internal/archive"
	"github.com/bilgisen/hutbe/internal/feed"
	"github.com/bilgisen/hutbe/internal/lock"
	"github.com/bilgisen/hutbe/internal/mirror"
	"github.com/bilgisen/hutbe/internal/models"
	"github.com/bilgisen/hutbe/internal/utils"
)

var yearRegex = regexp.MustCompile(`(20\d{2})`)

// Options configures an Updater. Mirror may be nil, in which case records
// link to the upstream document directly.
type Options struct {
	Sources      []feed.Source
	ArchivePath  string
	Locker       lock.Locker
	Mirror       mirror.Mirror
	Downloader   *mirror.Downloader
	MaxPages     int
	FetchTimeout time.Duration
	Concurrency  int
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Updater keeps hutbes.json in sync with upstream
type Updater struct {
	opts Options
	log  zerolog.Logger
}

// New validates options and applies defaults
func New(opts Options) (*Updater, error) {
	if len(opts.Sources) == 0 {
		return nil, errors.New("no sources configured")
	}
	if opts.ArchivePath == "" {
		return nil, errors.New("archive path is required")
	}
	if opts.Locker == nil {
		return nil, errors.New("locker is required")
	}
	if opts.Mirror != nil && opts.Downloader == nil {
		return nil, errors.New("mirror needs a downloader")
	}
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 45 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Updater{opts: opts, log: opts.Logger}, nil
}

// RunOptions tweaks a single run
type RunOptions struct {
	// ForceWrite rewrites the archive even when nothing was added
	ForceWrite bool
}

type fetchResult struct {
	language string
	items    []models.Descriptor
	err      error
}

// Run performs one update. It returns lock.ErrLocked when another run is in
// progress and an error wrapping archive.ErrWrite when the archive could not
// be saved. Per-language failures are only reported, never returned.
func (u *Updater) Run(ctx context.Context, ro RunOptions) (*Report, error) {
	start := u.opts.Now()

	release, err := u.opts.Locker.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(); err != nil {
			u.log.Error().Err(err).Msg("Failed to release archive lock")
		}
	}()

	a, err := archive.Load(u.opts.ArchivePath)
	if err != nil {
		return nil, err
	}
	u.log.Info().
		Int("existing", a.Len()).
		Str("archive", u.opts.ArchivePath).
		Msg("Loaded archive")

	u.log.Info().Str("phase", "fetching").Int("languages", len(u.opts.Sources)).Msg("Fetching upstream listings")
	results := u.fetchAll(ctx)

	u.log.Info().Str("phase", "merging").Msg("Merging new sermons")
	report := &Report{}
	m := newMerger(u, a, start)
	for _, res := range results {
		report.Languages = append(report.Languages, m.merge(ctx, res))
	}
	report.Added = a.Added()
	report.Total = a.Len()

	if a.Changed() || ro.ForceWrite {
		u.log.Info().Str("phase", "writing").Int("added", report.Added).Msg("Writing archive")
		if err := archive.Save(u.opts.ArchivePath, a); err != nil {
			report.Duration = u.opts.Now().Sub(start)
			return report, err
		}
		report.Written = true
	}

	report.Duration = u.opts.Now().Sub(start)
	u.log.Info().
		Str("phase", "idle").
		Int("added", report.Added).
		Int("total", report.Total).
		Strs("failed", report.Failed()).
		Dur("duration", report.Duration).
		Msg("Update finished")

	return report, nil
}

// fetchAll queries every source in parallel. The result slice keeps the
// configured language order; errors stay per language.
func (u *Updater) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(u.opts.Sources))

	var g errgroup.Group
	g.SetLimit(u.opts.Concurrency)
	for i, src := range u.opts.Sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = u.fetch(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (u *Updater) fetch(ctx context.Context, src feed.Source) fetchResult {
	ctx, cancel := context.WithTimeout(ctx, u.opts.FetchTimeout*time.Duration(u.opts.MaxPages))
	defer cancel()

	res := fetchResult{language: src.Language()}
	if u.opts.MaxPages == 1 {
		d, err := src.FetchLatest(ctx)
		if err == nil {
			res.items = []models.Descriptor{d}
		}
		res.err = err
		return res
	}
	res.items, res.err = src.FetchAll(ctx, u.opts.MaxPages)
	return res
}

// merger appends descriptors to the archive one language at a time
type merger struct {
	u        *Updater
	a        *archive.Archive
	runDate  time.Time
	usedKeys map[string]bool
}

func newMerger(u *Updater, a *archive.Archive, runDate time.Time) *merger {
	used := make(map[string]bool)
	for _, rec := range a.Records() {
		if rec.Filename != "" && rec.Year != 0 {
			used[mirror.SermonKey(rec.Language, rec.Year, rec.Filename)] = true
		}
	}
	return &merger{u: u, a: a, runDate: runDate, usedKeys: used}
}

func (m *merger) merge(ctx context.Context, res fetchResult) LanguageResult {
	log := m.u.log.With().Str("language", res.language).Logger()
	out := LanguageResult{Language: res.language, Status: StatusOK}

	if res.err != nil {
		out.Status = StatusFailed
		out.Err = res.err
		var parseErr *feed.ParseError
		if errors.As(res.err, &parseErr) {
			log.Error().Err(res.err).Msg("Upstream markup no longer matches the extractor, skipping language")
		} else {
			log.Warn().Err(res.err).Msg("Failed to fetch upstream listing, skipping language")
		}
		return out
	}

	out.Fetched = len(res.items)
	for i, d := range res.items {
		// only the newest entry of page 1 may take the run date as its date
		if !d.HasDate() && i > 0 {
			if !m.a.HasSource(d.SourcePDFURL) {
				out.Skipped++
				log.Warn().Str("url", d.SourcePDFURL).Msg("Skipping undated sermon that is not the latest one")
			}
			continue
		}

		key := archive.KeyFor(d, m.runDate)
		if m.a.Has(key, d.SourcePDFURL) {
			continue
		}

		rec, err := m.build(ctx, d, key)
		if err != nil {
			out.Skipped++
			log.Warn().Err(err).Str("url", d.SourcePDFURL).Msg("Failed to mirror sermon, will retry next run")
			continue
		}
		if err := m.a.Append(rec); err != nil {
			out.Skipped++
			log.Warn().Err(err).Str("id", rec.ID).Msg("Failed to append sermon")
			continue
		}

		out.Added++
		log.Info().
			Str("id", rec.ID).
			Str("date", rec.Date).
			Str("title", rec.Title).
			Str("found_on", d.FoundOn).
			Msg("Added sermon")
	}

	return out
}

func (m *merger) build(ctx context.Context, d models.Descriptor, key models.NaturalKey) (models.SermonRecord, error) {
	id := m.a.NewID(d.SourcePDFURL)
	year := determineYear(d, m.runDate)

	rec := models.SermonRecord{
		ID:           id,
		Title:        d.Title,
		Date:         key.Date,
		Year:         year,
		Language:     d.Language,
		SourcePDFURL: d.SourcePDFURL,
		PDFURL:       d.SourcePDFURL,
	}
	if rec.Title == "" {
		rec.Title = key.String()
	}

	if m.u.opts.Mirror == nil {
		return rec, nil
	}

	base := utils.Slugify(d.Title)
	filename := base + ".pdf"
	storageKey := mirror.SermonKey(d.Language, year, filename)
	taken := m.usedKeys[storageKey]
	if !taken {
		// a file at the plain name may belong to a document that is not archived
		exists, err := m.u.opts.Mirror.Exists(ctx, storageKey)
		if err != nil {
			return models.SermonRecord{}, err
		}
		taken = exists
	}
	if taken {
		filename = fmt.Sprintf("%s-%s.pdf", base, id[:6])
		storageKey = mirror.SermonKey(d.Language, year, filename)
	}

	publicURL, err := mirror.Store(ctx, m.u.opts.Downloader, m.u.opts.Mirror, d.SourcePDFURL, storageKey)
	if err != nil {
		return models.SermonRecord{}, err
	}

	m.usedKeys[storageKey] = true
	rec.Filename = filename
	rec.PDFURL = publicURL
	return rec, nil
}

// determineYear takes the listing date, else a 20xx token in the file name,
// else the run year
func determineYear(d models.Descriptor, runDate time.Time) int {
	if d.HasDate() {
		return d.Date.Year()
	}
	stem := path.Base(d.SourcePDFURL)
	if match := yearRegex.FindString(stem); match != "" {
		if y, err := strconv.Atoi(match); err == nil {
			return y
		}
	}
	return runDate.Year()
}
