package feed

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const userAgent = "open-hutbe-archiver/1.0 (+https://github.com/bilgisen/hutbe)"

// Fetcher retrieves upstream listing pages
type Fetcher struct {
	client *resty.Client
}

// NewFetcher creates a fetcher whose requests give up after timeout
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			SetHeader("User-Agent", userAgent).
			SetHeader("Accept", "text/html,application/xhtml+xml"),
	}
}

// Client exposes the underlying HTTP client so downloads share its settings
func (f *Fetcher) Client() *resty.Client {
	return f.client
}

// FetchPage retrieves a single HTML page. Any non-200 answer is a FetchError.
func (f *Fetcher) FetchPage(ctx context.Context, language, url string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", &FetchError{Language: language, URL: url, Err: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &FetchError{Language: language, URL: url, Status: resp.StatusCode()}
	}

	return string(resp.Body()), nil
}
