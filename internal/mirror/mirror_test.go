package mirror

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n%fake\n")

func TestKeys(t *testing.T) {
	assert.Equal(t, "tr/2024/sabir-ve-sukur.pdf", SermonKey("tr", 2024, "sabir-ve-sukur.pdf"))
	assert.Equal(t, "prayers/friday-khutbah-prayers.pdf", PrayerKey("friday-khutbah-prayers.pdf"))
}

func TestFSMirror(t *testing.T) {
	root := t.TempDir()
	m := NewFSMirror(root, "https://user.github.io/repo")
	ctx := context.Background()
	key := SermonKey("de", 2024, "kardeş lik.pdf")

	exists, err := m.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)

	publicURL, err := m.Put(ctx, key, pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "https://user.github.io/repo/pdfs/de/2024/karde%C5%9F%20lik.pdf", publicURL)

	data, err := os.ReadFile(filepath.Join(root, "de", "2024", "kardeş lik.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)

	exists, err = m.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

type fakeS3 struct {
	objects map[string][]byte
	headErr error
}

func (f *fakeS3) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	buf := make([]byte, aws.ToInt64(in.ContentLength))
	if _, err := in.Body.Read(buf); err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = buf
	return &s3.PutObjectOutput{}, nil
}

func TestS3Mirror(t *testing.T) {
	api := &fakeS3{objects: map[string][]byte{}}
	m := newS3Mirror(api, "hutbe", "https://cdn.example.com")
	ctx := context.Background()

	exists, err := m.Exists(ctx, "tr/2024/a.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	publicURL, err := m.Put(ctx, "tr/2024/a.pdf", pdfBytes)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/tr/2024/a.pdf", publicURL)
	assert.Equal(t, pdfBytes, api.objects["tr/2024/a.pdf"])

	exists, err = m.Exists(ctx, "tr/2024/a.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	api.headErr = errors.New("access denied")
	_, err = m.Exists(ctx, "tr/2024/a.pdf")
	assert.ErrorContains(t, err, "access denied")
}

func newDownloader(maxSize int64) *Downloader {
	return NewDownloader(resty.New(), maxSize)
}

func TestDownloaderFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.pdf":
			w.Write(pdfBytes)
		case "/error.pdf":
			w.Write([]byte("<html>Sayfa bulunamadı</html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	data, err := newDownloader(1024).Fetch(ctx, srv.URL+"/ok.pdf")
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, data)

	_, err = newDownloader(1024).Fetch(ctx, srv.URL+"/error.pdf")
	assert.True(t, errors.Is(err, ErrNotPDF))

	_, err = newDownloader(1024).Fetch(ctx, srv.URL+"/missing.pdf")
	assert.ErrorContains(t, err, "unexpected status code 404")

	_, err = newDownloader(4).Fetch(ctx, srv.URL+"/ok.pdf")
	assert.ErrorContains(t, err, "exceeds 4 bytes")
}

func TestStoreSkipsExistingKeys(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(pdfBytes)
	}))
	defer srv.Close()

	m := NewFSMirror(t.TempDir(), "https://example.com")
	d := newDownloader(1024)
	ctx := context.Background()

	first, err := Store(ctx, d, m, srv.URL+"/a.pdf", "tr/2024/a.pdf")
	require.NoError(t, err)
	second, err := Store(ctx, d, m, srv.URL+"/a.pdf", "tr/2024/a.pdf")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}
