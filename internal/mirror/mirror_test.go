package mirror

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// putRecorder is a fake S3 endpoint that accepts every PutObject.
type putRecorder struct {
	mu   sync.Mutex
	keys map[string][]byte
}

func (p *putRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPut {
		return &http.Response{StatusCode: http.StatusNotImplemented, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{}}, nil
	}
	body, _ := io.ReadAll(req.Body)
	p.mu.Lock()
	p.keys[strings.TrimPrefix(req.URL.Path, "/")] = body
	p.mu.Unlock()
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewReader(nil)), Header: http.Header{"ETag": {"\"etag\""}}}, nil
}

func (p *putRecorder) sortedKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.keys))
	for k := range p.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeSnapshot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mapping configurations", "AB1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "KIM_interface_configuration.json"), []byte(`{"timestamp":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mapping configurations", "AB1", "AB1-Press.json"), []byte(`{}`), 0o644))
	return dir
}

func TestOpenDrivers(t *testing.T) {
	t.Parallel()

	m, err := Open(context.Background(), Config{})
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = Open(context.Background(), Config{Driver: DriverDir, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverDir, m.Driver())

	_, err = Open(context.Background(), Config{Driver: DriverDir})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: "ftp"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(context.Background(), Config{Driver: DriverS3})
	assert.Error(t, err)
}

func TestDirUpload(t *testing.T) {
	t.Parallel()

	src := writeSnapshot(t)
	root := t.TempDir()
	d, err := NewDir(root)
	require.NoError(t, err)

	n, err := d.Upload(context.Background(), "2024-03-04 10.20.30", src)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(root, "2024-03-04 10.20.30", "mapping configurations", "AB1", "AB1-Press.json"))

	n, err = d.Upload(context.Background(), "2024-03-04 10.20.30", src)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestS3Upload(t *testing.T) {
	t.Parallel()

	rec := &putRecorder{keys: make(map[string][]byte)}
	m, err := NewS3(context.Background(), Config{
		Bucket:          "kim-backups",
		Region:          "eu-central-1",
		Endpoint:        "http://mock.s3.local",
		Prefix:          "/plant-7/",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, WithHTTPClient(&http.Client{Transport: rec}))
	require.NoError(t, err)

	n, err := m.Upload(context.Background(), "2024-03-04 10.20.30", writeSnapshot(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, []string{
		"kim-backups/plant-7/2024-03-04 10.20.30/KIM_interface_configuration.json",
		"kim-backups/plant-7/2024-03-04 10.20.30/mapping configurations/AB1/AB1-Press.json",
	}, rec.sortedKeys())
}

func TestS3Key(t *testing.T) {
	t.Parallel()

	m := &S3{bucket: "b"}
	assert.Equal(t, "snap/a/b.json", m.Key("snap", filepath.Join("a", "b.json")))
	m.prefix = "p"
	assert.Equal(t, "p/snap/a/b.json", m.Key("snap", filepath.Join("a", "b.json")))
}
