package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bilgisen/hutbe/internal/models"
)

// Source reports the sermons one language publishes upstream.
// Each language has its own Source so markup changes stay local to it.
type Source interface {
	Language() string
	// FetchLatest returns the most recent publication on the listing
	FetchLatest(ctx context.Context) (models.Descriptor, error)
	// FetchAll walks up to maxPages listing pages, newest first
	FetchAll(ctx context.Context, maxPages int) ([]models.Descriptor, error)
}

// ListingSource scrapes a paginated listing page
type ListingSource struct {
	language   string
	listingURL string
	base       *url.URL
	fetcher    *Fetcher
	extract    Extractor
	log        zerolog.Logger
}

// NewListingSource creates a source for one language's listing page
func NewListingSource(language, listingURL string, base *url.URL, fetcher *Fetcher, extract Extractor, log zerolog.Logger) *ListingSource {
	return &ListingSource{
		language:   language,
		listingURL: listingURL,
		base:       base,
		fetcher:    fetcher,
		extract:    extract,
		log:        log.With().Str("language", language).Logger(),
	}
}

func (s *ListingSource) Language() string {
	return s.language
}

// FetchLatest returns the first entry of the first listing page
func (s *ListingSource) FetchLatest(ctx context.Context) (models.Descriptor, error) {
	items, err := s.FetchAll(ctx, 1)
	if err != nil {
		return models.Descriptor{}, err
	}
	return items[0], nil
}

// FetchAll walks the listing pages. The first page must yield sermons;
// later pages that fail or come back empty end the walk.
func (s *ListingSource) FetchAll(ctx context.Context, maxPages int) ([]models.Descriptor, error) {
	if maxPages < 1 {
		maxPages = 1
	}

	var all []models.Descriptor
	for page := 1; page <= maxPages; page++ {
		pageURL := s.pageURL(page)
		s.log.Debug().Int("page", page).Str("url", pageURL).Msg("Scanning listing page")

		items, err := s.fetchPage(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			s.log.Debug().Err(err).Int("page", page).Msg("Stopping pagination")
			break
		}
		all = append(all, items...)
	}

	return all, nil
}

func (s *ListingSource) fetchPage(ctx context.Context, pageURL string) ([]models.Descriptor, error) {
	body, err := s.fetcher.FetchPage(ctx, s.language, pageURL)
	if err != nil {
		return nil, err
	}

	items, err := s.extract(body, pageURL, s.base)
	if err != nil {
		return nil, &ParseError{Language: s.language, URL: pageURL, Reason: err.Error(), Err: err}
	}
	if len(items) == 0 {
		return nil, &ParseError{Language: s.language, URL: pageURL, Reason: "no sermon links found"}
	}

	for i := range items {
		items[i].Language = s.language
	}
	return items, nil
}

func (s *ListingSource) pageURL(page int) string {
	sep := "?"
	if strings.Contains(s.listingURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", s.listingURL, sep, page)
}

type listing struct {
	path    string
	extract Extractor
}

// listings maps a language code to its category page on the Diyanet site and
// the extractor that understands it
var listings = map[string]listing{
	"tr": {path: "/kategoriler/yayinlarimiz/hutbeler/türkçe", extract: ExtractTable},
	"de": {path: "/kategoriler/yayinlarimiz/hutbeler/deutsche-(almanca)", extract: ExtractTable},
	"en": {path: "/kategoriler/yayinlarimiz/hutbeler/english-(ingilizce)", extract: ExtractTable},
	"fr": {path: "/kategoriler/yayinlarimiz/hutbeler/français-(fransızca)", extract: ExtractTable},
	"ru": {path: "/kategoriler/yayinlarimiz/hutbeler/русский-(rusça)", extract: ExtractTable},
	"ar": {path: "/kategoriler/yayinlarimiz/hutbeler/عربي-(arapça)", extract: ExtractTable},
	"it": {path: "/kategoriler/yayinlarimiz/hutbeler/italiano-(italyanca)", extract: ExtractTable},
	"es": {path: "/kategoriler/yayinlarimiz/hutbeler/espanol-(ispanyolca)", extract: ExtractTable},
}

// Registry builds the configured sources in the order of languages
func Registry(baseURL string, languages []string, fetcher *Fetcher, log zerolog.Logger) ([]Source, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream base URL %q: %w", baseURL, err)
	}

	sources := make([]Source, 0, len(languages))
	for _, lang := range languages {
		l, ok := listings[lang]
		if !ok {
			return nil, fmt.Errorf("unsupported language %q", lang)
		}
		listingURL := base.ResolveReference(&url.URL{Path: l.path}).String()
		sources = append(sources, NewListingSource(lang, listingURL, base, fetcher, l.extract, log))
	}
	return sources, nil
}
