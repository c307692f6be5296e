package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uzairgheewala/dsc106-proj3/internal/config"
)

func testClient(timeout time.Duration) *Client {
	return &Client{
		cfg:        &config.Config{FetchTimeout: timeout},
		httpClient: &http.Client{Timeout: timeout},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Fetch_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exposure.csv")
	require.NoError(t, os.WriteFile(path, []byte("country_code,year\n"), 0o600))

	c := testClient(5 * time.Second)

	data, err := c.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "country_code,year\n", string(data))
}

func TestClient_Fetch_FileURI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,country\n"), 0o600))

	c := testClient(5 * time.Second)

	data, err := c.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "name,country\n", string(data))
}

func TestClient_Fetch_MissingFile(t *testing.T) {
	c := testClient(5 * time.Second)

	_, err := c.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.csv")
}

func TestClient_Fetch_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exposure.csv", r.URL.Path)
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer srv.Close()

	c := testClient(5 * time.Second)

	data, err := c.Fetch(context.Background(), srv.URL+"/exposure.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestClient_Fetch_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(5 * time.Second)

	_, err := c.Fetch(context.Background(), srv.URL+"/gone.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestClient_Fetch_HTTPTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(50 * time.Millisecond)

	_, err := c.Fetch(context.Background(), srv.URL+"/slow.csv")
	require.Error(t, err)
}

func TestClient_Fetch_UnsupportedScheme(t *testing.T) {
	c := testClient(5 * time.Second)

	_, err := c.Fetch(context.Background(), "ftp://example.com/data.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported URI scheme")
}

func TestClient_Fetch_BadS3URI(t *testing.T) {
	c := testClient(5 * time.Second)

	_, err := c.Fetch(context.Background(), "s3://bucket-only")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bucket/key")
}
