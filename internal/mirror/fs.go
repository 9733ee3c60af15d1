package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// FSMirror writes PDFs below a local directory that is published together
// with the JSON files
type FSMirror struct {
	root    string
	baseURL string
}

// NewFSMirror stores under root; files are served at baseURL + "/pdfs/" + key
func NewFSMirror(root, publicBaseURL string) *FSMirror {
	return &FSMirror{root: root, baseURL: publicBaseURL + "/pdfs"}
}

func (m *FSMirror) path(key string) string {
	return filepath.Join(m.root, filepath.FromSlash(key))
}

func (m *FSMirror) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(m.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", key, err)
}

func (m *FSMirror) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p := m.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("failed to create mirror directory: %w", err)
	}
	if err := renameio.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return m.URL(key), nil
}

func (m *FSMirror) URL(key string) string {
	return joinURL(m.baseURL, key)
}
