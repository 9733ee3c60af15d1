package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in hutbes.json
const DateLayout = "2006-01-02"

// SermonRecord is a single entry of hutbes.json
type SermonRecord struct {
	ID           string `json:"id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Year         int    `json:"year,omitempty"`
	Language     string `json:"language" validate:"required,min=2,max=8"`
	Filename     string `json:"filename,omitempty"`
	SourcePDFURL string `json:"source_pdf_url,omitempty" validate:"omitempty,url"`
	PDFURL       string `json:"pdf_url" validate:"required,url"`
}

// Key returns the natural key of the record
func (r SermonRecord) Key() NaturalKey {
	return NaturalKey{Date: r.Date, Language: r.Language}
}

// NaturalKey identifies a sermon independently of its synthetic id
type NaturalKey struct {
	Date     string
	Language string
}

func (k NaturalKey) String() string {
	return fmt.Sprintf("%s/%s", k.Date, k.Language)
}

// Descriptor is what an upstream source reports about one published sermon.
// Date is zero when the listing carried no date.
type Descriptor struct {
	Title        string
	Date         time.Time
	Language     string
	SourcePDFURL string
	FoundOn      string
}

// HasDate reports whether the upstream listing carried a date
func (d Descriptor) HasDate() bool {
	return !d.Date.IsZero()
}
