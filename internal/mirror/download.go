package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// ErrNotPDF is returned when upstream answers with something other than a PDF,
// typically an HTML error page served with status 200
var ErrNotPDF = errors.New("response is not a PDF")

// Downloader fetches upstream documents into memory
type Downloader struct {
	client  *resty.Client
	maxSize int64
}

// NewDownloader reuses the upstream client settings and caps bodies at maxSize bytes
func NewDownloader(client *resty.Client, maxSize int64) *Downloader {
	return &Downloader{client: client, maxSize: maxSize}
}

// Fetch downloads a PDF
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "application/pdf").
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode(), url)
	}

	data, err := io.ReadAll(io.LimitReader(body, d.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("%s exceeds %d bytes", url, d.maxSize)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("%s: %w", url, ErrNotPDF)
	}
	return data, nil
}

// Store downloads url and writes it to key unless the key already exists.
// It returns the public URL of the mirrored copy. Callers pass keys that
// identify the source document, since an existing object is reused as is.
func Store(ctx context.Context, d *Downloader, m Mirror, url, key string) (string, error) {
	exists, err := m.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return m.URL(key), nil
	}

	data, err := d.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return m.Put(ctx, key, data)
}
