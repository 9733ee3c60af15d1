package utils

import (
	"net/url"
	"strings"

	"github.com/gosimple/slug"
)

// Slugify turns a sermon or prayer title into an ASCII file name stem.
// Turkish letters are transliterated; an empty result falls back to "hutbe".
func Slugify(text string) string {
	if unescaped, err := url.PathUnescape(text); err == nil {
		text = unescaped
	}
	s := slug.MakeLang(strings.TrimSpace(text), "tr")
	if s == "" {
		return "hutbe"
	}
	return s
}
