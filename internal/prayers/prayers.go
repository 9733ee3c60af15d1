// Package prayers maintains prayers.json, the small set of standard khutbah
// prayers. It is edited by hand or by the prayers command, never by the
// weekly update.
package prayers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bilgisen/hutbe/internal/archive"
	"github.com/bilgisen/hutbe/internal/mirror"
	"github.com/bilgisen/hutbe/internal/models"
	"github.com/bilgisen/hutbe/internal/utils"
)

// Prayer is a static upstream prayer document
type Prayer struct {
	ID       string
	Title    string
	Language string
	URL      string
}

// Defaults are the prayer PDFs published by Diyanet
var Defaults = []Prayer{
	{
		ID:       "friday_prayer",
		Title:    "Friday Khutbah Prayers",
		Language: "tr",
		URL:      "https://dinhizmetleri.diyanet.gov.tr/HutbeDualari/Cuma%20Hutbesi%20Dualar%C4%B1.pdf",
	},
	{
		ID:       "eid_prayer",
		Title:    "Eid Khutbah Prayers",
		Language: "tr",
		URL:      "https://dinhizmetleri.diyanet.gov.tr/HutbeDualari/Bayram%20Hutbesi%20Dualar%C4%B1.pdf",
	},
}

// Options configures Sync. Mirror may be nil to link upstream directly.
type Options struct {
	Path       string
	Prayers    []Prayer
	Mirror     mirror.Mirror
	Downloader *mirror.Downloader
	Logger     zerolog.Logger
}

// Load reads prayers.json; a missing file yields no records
func Load(path string) ([]models.PrayerRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	records, err := archive.DecodeRecords[models.PrayerRecord](data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

// Sync mirrors every prayer document and rewrites prayers.json. Prayers whose
// document cannot be fetched are left out; if none succeed the file is kept.
func Sync(ctx context.Context, opts Options) ([]models.PrayerRecord, error) {
	if opts.Mirror != nil && opts.Downloader == nil {
		return nil, errors.New("mirror needs a downloader")
	}

	records := make([]models.PrayerRecord, 0, len(opts.Prayers))
	for _, p := range opts.Prayers {
		log := opts.Logger.With().Str("prayer", p.ID).Logger()

		rec := models.PrayerRecord{
			ID:        p.ID,
			Title:     p.Title,
			Language:  p.Language,
			PDFURL:    p.URL,
			SourceURL: p.URL,
		}

		if opts.Mirror != nil {
			filename := utils.Slugify(p.Title) + ".pdf"
			publicURL, err := mirror.Store(ctx, opts.Downloader, opts.Mirror, p.URL, mirror.PrayerKey(filename))
			if err != nil {
				log.Warn().Err(err).Msg("Failed to mirror prayer")
				continue
			}
			rec.Filename = filename
			rec.PDFURL = publicURL
		}

		log.Info().Str("pdf_url", rec.PDFURL).Msg("Prayer ready")
		records = append(records, rec)
	}

	if len(records) == 0 && len(opts.Prayers) > 0 {
		return nil, errors.New("no prayer document could be mirrored")
	}

	if err := archive.WriteJSON(opts.Path, records); err != nil {
		return nil, err
	}
	return records, nil
}
