package feed

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bilgisen/hutbe/internal/models"
)

var dateRegex = regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{4})\b`)

// Extractor turns one listing page into sermon descriptors.
// An empty result without error means the page carried no sermons.
type Extractor func(page string, pageURL string, base *url.URL) ([]models.Descriptor, error)

// ExtractTable reads the Diyanet listing layout: one table row per sermon with a
// PDF link and a DD.MM.YYYY date. Pages without such rows fall back to any PDF link.
func ExtractTable(page string, pageURL string, base *url.URL) ([]models.Descriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []models.Descriptor
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		anchor := row.Find("a[href]").FilterFunction(func(_ int, a *goquery.Selection) bool {
			return isPDFLink(a)
		}).First()
		if anchor.Length() == 0 {
			return
		}

		pdfURL, ok := resolve(base, anchor)
		if !ok {
			return
		}

		items = append(items, models.Descriptor{
			Title:        titleFor(anchor, pdfURL),
			Date:         parseDate(textOf(row)),
			SourcePDFURL: pdfURL,
			FoundOn:      pageURL,
		})
	})

	if len(items) > 0 {
		return items, nil
	}
	return ExtractLinks(page, pageURL, base)
}

// ExtractLinks collects every PDF link on the page. Dates are unknown in this layout.
func ExtractLinks(page string, pageURL string, base *url.URL) ([]models.Descriptor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []models.Descriptor
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if !isPDFLink(a) {
			return
		}
		pdfURL, ok := resolve(base, a)
		if !ok {
			return
		}
		items = append(items, models.Descriptor{
			Title:        titleFor(a, pdfURL),
			SourcePDFURL: pdfURL,
			FoundOn:      pageURL,
		})
	})

	return items, nil
}

func isPDFLink(a *goquery.Selection) bool {
	href, _ := a.Attr("href")
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return strings.HasSuffix(strings.ToLower(strings.TrimSpace(href)), ".pdf")
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

func resolve(base *url.URL, a *goquery.Selection) (string, bool) {
	href, _ := a.Attr("href")
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", false
	}
	return base.ResolveReference(ref).String(), true
}

func titleFor(a *goquery.Selection, pdfURL string) string {
	title := normalizeSpace(a.Text())
	if len([]rune(title)) >= 3 {
		return title
	}
	return fileStem(pdfURL)
}

// fileStem returns the unescaped file name of a URL without its extension
func fileStem(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

func parseDate(text string) time.Time {
	match := dateRegex.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}
	}
	t, err := time.Parse("2.1.2006", match[1])
	if err != nil {
		return time.Time{}
	}
	return t
}

// textOf joins the text nodes below s with spaces, so adjacent cells such as
// <td>Şükür</td><td>17.05.2024</td> stay separate words
func textOf(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				parts = append(parts, c.Text())
				return
			}
			walk(c)
		})
	}
	walk(s)
	return normalizeSpace(strings.Join(parts, " "))
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
