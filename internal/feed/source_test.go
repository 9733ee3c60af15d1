package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(title, href, date string) string {
	return `<tr><td><a href="` + href + `">` + title + `</a></td><td>` + date + `</td></tr>`
}

func newTestSource(t *testing.T, handler http.HandlerFunc) (*ListingSource, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)

	fetcher := NewFetcher(2 * time.Second)
	fetcher.Client().SetRetryCount(0)
	return NewListingSource("tr", srv.URL+"/tr", base, fetcher, ExtractTable, zerolog.Nop()), srv
}

func TestFetchAllWalksPages(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`<table>` + row("Birinci Hutbe", "/a.pdf", "17.05.2024") + `</table>`))
		case "2":
			w.Write([]byte(`<table>` + row("İkinci Hutbe", "/b.pdf", "10.05.2024") + `</table>`))
		default:
			w.Write([]byte(`<p>bitti</p>`))
		}
	})

	items, err := src.FetchAll(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Birinci Hutbe", items[0].Title)
	assert.Equal(t, "İkinci Hutbe", items[1].Title)
	assert.Equal(t, "tr", items[0].Language)
	assert.Equal(t, "tr", items[1].Language)
}

func TestFetchLatest(t *testing.T) {
	src, srv := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<table>` + row("Son Hutbe", "/son.pdf", "17.05.2024") + row("Önceki", "/eski.pdf", "10.05.2024") + `</table>`))
	})

	d, err := src.FetchLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Son Hutbe", d.Title)
	assert.Equal(t, srv.URL+"/son.pdf", d.SourcePDFURL)
}

func TestFirstPageStatusIsFetchError(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := src.FetchAll(context.Background(), 3)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "tr", fetchErr.Language)
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
}

func TestFirstPageWithoutSermonsIsParseError(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>Yeni tasarım</body></html>`))
	})

	_, err := src.FetchLatest(context.Background())
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "no sermon links found", parseErr.Reason)
}

func TestLaterPageFailureEndsWalk(t *testing.T) {
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(`<table>` + row("Birinci Hutbe", "/a.pdf", "17.05.2024") + `</table>`))
			return
		}
		http.NotFound(w, r)
	})

	items, err := src.FetchAll(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestHungFetchTimesOut(t *testing.T) {
	release := make(chan struct{})
	src, _ := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := src.FetchLatest(ctx)
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
}

func TestRegistry(t *testing.T) {
	sources, err := Registry("https://dinhizmetleri.diyanet.gov.tr", []string{"en", "tr"}, NewFetcher(time.Second), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "en", sources[0].Language())
	assert.Equal(t, "tr", sources[1].Language())

	_, err = Registry("https://dinhizmetleri.diyanet.gov.tr", []string{"xx"}, NewFetcher(time.Second), zerolog.Nop())
	assert.ErrorContains(t, err, `unsupported language "xx"`)
}

func TestPageURL(t *testing.T) {
	s := &ListingSource{listingURL: "https://x/list"}
	assert.Equal(t, "https://x/list?page=2", s.pageURL(2))
	s.listingURL = "https://x/list?lang=tr"
	assert.Equal(t, "https://x/list?lang=tr&page=1", s.pageURL(1))
}
