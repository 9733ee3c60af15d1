package archive

import (
	"fmt"

	"github.com/bilgisen/hutbe/internal/models"
)

// Problems lists records that break the archive invariants: invalid fields,
// a natural key or pdf_url shared by several records. Duplicate ids cannot
// occur here since New rejects them.
func (a *Archive) Problems() []error {
	var problems []error
	keys := make(map[models.NaturalKey]string)
	pdfs := make(map[string]string)

	for _, rec := range a.Records() {
		if err := validate.Struct(rec); err != nil {
			problems = append(problems, fmt.Errorf("record %s: %v", rec.ID, err))
		}
		if other, ok := keys[rec.Key()]; ok {
			problems = append(problems, fmt.Errorf("records %s and %s share %s", other, rec.ID, rec.Key()))
		} else {
			keys[rec.Key()] = rec.ID
		}
		if other, ok := pdfs[rec.PDFURL]; ok {
			problems = append(problems, fmt.Errorf("records %s and %s share pdf_url %s", other, rec.ID, rec.PDFURL))
		} else {
			pdfs[rec.PDFURL] = rec.ID
		}
	}
	return problems
}
