package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"

	"github.com/bilgisen/hutbe/internal/models"
)

// ErrWrite marks failures to persist the archive. The previous file is left in place.
var ErrWrite = errors.New("archive write failed")

var validate = validator.New()

// Load reads an archive file. A missing file is an empty archive; a file that
// is not a JSON array of records is an error.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return New(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}

	records, err := DecodeRecords[models.SermonRecord](data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode archive %s: %w", path, err)
	}
	return New(records)
}

// Save atomically replaces path with the archive contents. Only records
// appended since loading are validated; older records are reported by Problems.
func Save(path string, a *Archive) error {
	for _, rec := range a.Appended() {
		if err := validate.Struct(rec); err != nil {
			return fmt.Errorf("%w: record %s invalid: %v", ErrWrite, rec.Key(), err)
		}
	}
	return write(path, a.Records())
}

// WriteJSON validates the items and atomically replaces path with their JSON array
func WriteJSON[T any](path string, items []T) error {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("%w: record %d invalid: %v", ErrWrite, i, err)
		}
	}
	return write(path, items)
}

func write[T any](path string, items []T) error {
	data, err := Encode(items)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := writeAtomic(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Encode renders items as an indented UTF-8 JSON array with a trailing newline
func Encode[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecords parses a JSON array
func DecodeRecords[T any](data []byte) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// writeAtomic uses renameio: temp file in the same directory, fsync, rename
func writeAtomic(path string, r io.Reader) error {
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	// no-op once the file has been committed
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := io.Copy(pendingFile, r); err != nil {
		return fmt.Errorf("write pending file: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}
