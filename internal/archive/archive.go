// Package archive holds hutbes.json in memory, keyed by the (date, language)
// natural key, and writes it back atomically.
package archive

import (
	"fmt"
	"sort"
	"time"

	"github.com/bilgisen/hutbe/internal/models"
	"github.com/bilgisen/hutbe/internal/utils"
)

const idLength = 16

// Archive is the in-memory form of hutbes.json. It is not safe for concurrent use.
type Archive struct {
	records  []models.SermonRecord
	byKey    map[models.NaturalKey]int
	byID     map[string]int
	bySource map[string]int
	loaded   int
	added    int
}

// New indexes existing records. Duplicate ids are rejected; records sharing a
// natural key are kept as they are and the first one wins the index.
func New(records []models.SermonRecord) (*Archive, error) {
	a := &Archive{
		records:  make([]models.SermonRecord, 0, len(records)),
		byKey:    make(map[models.NaturalKey]int, len(records)),
		byID:     make(map[string]int, len(records)),
		bySource: make(map[string]int, len(records)),
	}
	for _, rec := range records {
		if _, dup := a.byID[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q in archive", rec.ID)
		}
		a.index(rec)
	}
	a.loaded = len(a.records)
	return a, nil
}

func (a *Archive) index(rec models.SermonRecord) {
	i := len(a.records)
	a.records = append(a.records, rec)
	a.byID[rec.ID] = i
	if _, ok := a.byKey[rec.Key()]; !ok {
		a.byKey[rec.Key()] = i
	}
	if rec.SourcePDFURL != "" {
		if _, ok := a.bySource[rec.SourcePDFURL]; !ok {
			a.bySource[rec.SourcePDFURL] = i
		}
	}
}

// Len is the number of records
func (a *Archive) Len() int {
	return len(a.records)
}

// Added is the number of records appended since the archive was loaded
func (a *Archive) Added() int {
	return a.added
}

// Appended returns the records added since the archive was loaded
func (a *Archive) Appended() []models.SermonRecord {
	out := make([]models.SermonRecord, len(a.records)-a.loaded)
	copy(out, a.records[a.loaded:])
	return out
}

// Changed reports whether anything was appended
func (a *Archive) Changed() bool {
	return a.added > 0
}

// Has reports whether the natural key or the source document is already archived
func (a *Archive) Has(key models.NaturalKey, sourcePDFURL string) bool {
	if _, ok := a.byKey[key]; ok {
		return true
	}
	if sourcePDFURL != "" {
		if _, ok := a.bySource[sourcePDFURL]; ok {
			return true
		}
	}
	return false
}

// HasSource reports whether the source document is already archived
func (a *Archive) HasSource(sourcePDFURL string) bool {
	_, ok := a.bySource[sourcePDFURL]
	return ok
}

// Get returns the record stored under a natural key
func (a *Archive) Get(key models.NaturalKey) (models.SermonRecord, bool) {
	i, ok := a.byKey[key]
	if !ok {
		return models.SermonRecord{}, false
	}
	return a.records[i], true
}

// NewID derives an id from the source document URL. The hash window grows
// until the id is free, so ids already in the archive are never reused.
func (a *Archive) NewID(sourcePDFURL string) string {
	for n := idLength; n <= 40; n++ {
		id := utils.ShortHash(sourcePDFURL, n)
		if _, taken := a.byID[id]; !taken {
			return id
		}
	}
	// a full SHA-1 collision with a different document; disambiguate by position
	return fmt.Sprintf("%s-%d", utils.ShortHash(sourcePDFURL, 0), len(a.records))
}

// Append adds a new record. It fails when the id or natural key is already present.
func (a *Archive) Append(rec models.SermonRecord) error {
	if _, dup := a.byID[rec.ID]; dup {
		return fmt.Errorf("id %q already archived", rec.ID)
	}
	if a.Has(rec.Key(), rec.SourcePDFURL) {
		return fmt.Errorf("sermon %s already archived", rec.Key())
	}
	a.index(rec)
	a.added++
	return nil
}

// Records returns a copy of all records, newest first. Ties are broken by
// language and then id so the output is deterministic.
func (a *Archive) Records() []models.SermonRecord {
	out := make([]models.SermonRecord, len(a.records))
	copy(out, a.records)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		if out[i].Language != out[j].Language {
			return out[i].Language < out[j].Language
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// KeyFor computes the natural key of an upstream descriptor. Undated
// descriptors are keyed on the run date.
func KeyFor(d models.Descriptor, runDate time.Time) models.NaturalKey {
	date := runDate
	if d.HasDate() {
		date = d.Date
	}
	return models.NaturalKey{Date: date.Format(models.DateLayout), Language: d.Language}
}
