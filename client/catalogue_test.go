package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogueServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 2, "name": "zeta", "cover_url": "https://img/z.png", "download_url": "https://dl/zeta.rar"},
			{"id": 1, "name": "Alpha", "cover_url": "https://img/a.png", "download_url": "https://dl/alpha.zip", "size_bytes": 1234}
		]`))
	})
	mux.HandleFunc("/api/games/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1, "name": "Alpha", "cover_url": "", "download_url": "https://dl/alpha.zip"}`))
	})
	mux.HandleFunc("/api/games/3", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestListGames_SortedAndOptionalSize(t *testing.T) {
	srv := newCatalogueServer(t)
	c := NewCatalogueClient(srv.URL+"/api/", srv.Client())

	games, err := c.ListGames(context.Background())
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, "Alpha", games[0].Name)
	require.NotNil(t, games[0].SizeBytes)
	assert.EqualValues(t, 1234, *games[0].SizeBytes)
	assert.Equal(t, "zeta", games[1].Name)
	assert.Nil(t, games[1].SizeBytes)
	assert.Equal(t, "https://dl/zeta.rar", games[1].DownloadURL)
}

func TestGetGame(t *testing.T) {
	srv := newCatalogueServer(t)
	c := NewCatalogueClient(srv.URL+"/api", srv.Client())

	g, err := c.GetGame(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, CatalogueEntry{ID: 1, Name: "Alpha", DownloadURL: "https://dl/alpha.zip"}, g)

	_, err = c.GetGame(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperr.IsType(err, apperr.NotFound))

	_, err = c.GetGame(context.Background(), 3)
	require.Error(t, err)
	assert.True(t, apperr.IsType(err, apperr.Network))
}

func TestListGames_ServerDown(t *testing.T) {
	srv := newCatalogueServer(t)
	url := srv.URL
	srv.Close()

	_, err := NewCatalogueClient(url+"/api", nil).ListGames(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsType(err, apperr.Network))
}

func TestProbeSize_Head(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "5000")
		if r.Method == http.MethodGet {
			t.Error("HEAD answered, GET should not be needed")
		}
	}))
	defer srv.Close()

	size, ok := NewCatalogueClient("", srv.Client()).ProbeSize(context.Background(), srv.URL+"/game.rar")
	require.True(t, ok)
	assert.EqualValues(t, 5000, size)
}

func TestProbeSize_RangeFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		assert.Equal(t, "bytes=0-0", r.Header.Get("Range"))
		w.Header().Set("Content-Range", "bytes 0-0/987654")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	size, ok := NewCatalogueClient("", srv.Client()).ProbeSize(context.Background(), srv.URL+"/game.rar")
	require.True(t, ok)
	assert.EqualValues(t, 987654, size)
}

func TestProbeSize_Unknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, ok := NewCatalogueClient("", srv.Client()).ProbeSize(context.Background(), srv.URL+"/missing.rar")
	assert.False(t, ok)
}

func TestFillSizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "42")
	}))
	defer srv.Close()

	known := int64(7)
	entries := []CatalogueEntry{
		{ID: 1, Name: "A", DownloadURL: srv.URL + "/a.rar"},
		{ID: 2, Name: "B", DownloadURL: srv.URL + "/b.rar", SizeBytes: &known},
		{ID: 3, Name: "C"},
	}
	NewCatalogueClient("", srv.Client()).FillSizes(context.Background(), entries, 2)

	require.NotNil(t, entries[0].SizeBytes)
	assert.EqualValues(t, 42, *entries[0].SizeBytes)
	assert.EqualValues(t, 7, *entries[1].SizeBytes)
	assert.Nil(t, entries[2].SizeBytes)
}
