// Package mirror keeps durable copies of upstream PDFs so archived links
// survive upstream link rot.
package mirror

import (
	"context"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Mirror stores documents under slash separated keys and serves them publicly
type Mirror interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte) (publicURL string, err error)
	URL(key string) string
}

// SermonKey is the storage key of a sermon PDF: <lang>/<year>/<file>
func SermonKey(language string, year int, filename string) string {
	return path.Join(language, strconv.Itoa(year), filename)
}

// PrayerKey is the storage key of a prayer PDF
func PrayerKey(filename string) string {
	return path.Join("prayers", filename)
}

func joinURL(base, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
