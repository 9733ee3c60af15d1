package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilgisen/hutbe/internal/models"
	"github.com/bilgisen/hutbe/internal/utils"
)

func record(id, date, lang string) models.SermonRecord {
	return models.SermonRecord{
		ID:           id,
		Title:        "Hutbe " + id,
		Date:         date,
		Language:     lang,
		SourcePDFURL: "https://upstream.example.com/" + id + ".pdf",
		PDFURL:       "https://mirror.example.com/" + id + ".pdf",
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New([]models.SermonRecord{
		record("a", "2024-05-17", "tr"),
		record("a", "2024-05-10", "tr"),
	})
	assert.ErrorContains(t, err, `duplicate id "a"`)
}

func TestHasByNaturalKeyAndSource(t *testing.T) {
	a, err := New([]models.SermonRecord{record("a", "2024-05-17", "tr")})
	require.NoError(t, err)

	assert.True(t, a.Has(models.NaturalKey{Date: "2024-05-17", Language: "tr"}, ""))
	assert.True(t, a.Has(models.NaturalKey{Date: "2024-05-24", Language: "tr"}, "https://upstream.example.com/a.pdf"))
	assert.False(t, a.Has(models.NaturalKey{Date: "2024-05-17", Language: "en"}, "https://upstream.example.com/b.pdf"))
}

func TestAppend(t *testing.T) {
	a, err := New([]models.SermonRecord{record("a", "2024-05-17", "tr")})
	require.NoError(t, err)
	assert.False(t, a.Changed())

	require.NoError(t, a.Append(record("b", "2024-05-17", "en")))
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 1, a.Added())
	assert.True(t, a.Changed())

	got, ok := a.Get(models.NaturalKey{Date: "2024-05-17", Language: "en"})
	require.True(t, ok)
	assert.Equal(t, "b", got.ID)

	assert.ErrorContains(t, a.Append(record("b", "2024-05-24", "de")), "already archived")
	assert.ErrorContains(t, a.Append(record("c", "2024-05-17", "tr")), "already archived")
	assert.Equal(t, 1, a.Added())
}

func TestNewIDAvoidsCollisions(t *testing.T) {
	src := "https://upstream.example.com/x.pdf"
	short := utils.ShortHash(src, 16)

	a, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, short, a.NewID(src))

	// an unrelated record already owns the short form
	taken := record(short, "2020-01-03", "tr")
	a, err = New([]models.SermonRecord{taken})
	require.NoError(t, err)

	id := a.NewID(src)
	assert.NotEqual(t, short, id)
	assert.Equal(t, utils.ShortHash(src, 17), id)
}

func TestRecordsSortedDeterministically(t *testing.T) {
	a, err := New([]models.SermonRecord{
		record("c", "2024-05-10", "tr"),
		record("b", "2024-05-17", "tr"),
		record("a", "2024-05-17", "de"),
		record("d", "2024-05-17", "de-x"),
	})
	require.NoError(t, err)

	var ids []string
	for _, r := range a.Records() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids)
}

func TestKeyFor(t *testing.T) {
	run := time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

	dated := models.Descriptor{Language: "tr", Date: time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, models.NaturalKey{Date: "2024-05-17", Language: "tr"}, KeyFor(dated, run))

	undated := models.Descriptor{Language: "ar"}
	assert.Equal(t, models.NaturalKey{Date: "2024-05-20", Language: "ar"}, KeyFor(undated, run))
}
