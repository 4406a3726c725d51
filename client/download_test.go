package client

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(m *DownloadManager, url, dest string) []DownloadEvent {
	var events []DownloadEvent
	for ev := range m.Download(context.Background(), url, dest) {
		events = append(events, ev)
	}
	return events
}

func TestDownload_ExistingFileSkipsNetwork(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	require.NoError(t, os.WriteFile(dest, []byte("cached"), 0o644))

	var calls atomic.Int32
	hc := fakeClient(t, &calls, func(*http.Request) *http.Response {
		t.Error("network must not be used when the archive exists")
		return nil
	})

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.rar", dest)
	assert.Equal(t, []DownloadEvent{DownloadCompleted{Path: dest}}, events)
	assert.Zero(t, calls.Load())
}

func TestDownload_ProgressPerChunk(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "sub", "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusOK, ContentLength: 1000, Body: &chunkedBody{remaining: 1000, chunk: 250}}
	})

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.rar", dest)
	assert.Equal(t, []DownloadEvent{
		DownloadProgress{Received: 250, Total: 1000},
		DownloadProgress{Received: 500, Total: 1000},
		DownloadProgress{Received: 750, Total: 1000},
		DownloadProgress{Received: 1000, Total: 1000},
		DownloadCompleted{Path: dest},
	}, events)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, info.Size())
}

func TestDownload_UnknownLengthReportsZeroTotal(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.zip")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusOK, ContentLength: -1, Body: &chunkedBody{remaining: 300, chunk: 100}}
	})

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.zip", dest)
	require.Len(t, events, 4)
	for _, ev := range events[:3] {
		p, ok := ev.(DownloadProgress)
		require.True(t, ok)
		assert.Zero(t, p.Total)
	}
	assert.Equal(t, DownloadCompleted{Path: dest}, events[3])
}

func TestDownload_HTTPErrorFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return textResponse(http.StatusInternalServerError, "boom")
	})

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.rar", dest)
	require.Len(t, events, 1)
	failed, ok := events[0].(DownloadFailed)
	require.True(t, ok)
	assert.True(t, apperr.IsType(failed.Err, apperr.Network))
}

func TestDownload_TransportErrorFails(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response { return nil })

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.rar", dest)
	require.Len(t, events, 1)
	failed, ok := events[0].(DownloadFailed)
	require.True(t, ok)
	assert.True(t, apperr.IsType(failed.Err, apperr.Network))
}

func TestDownload_InterruptedStreamLeavesPartialFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return &http.Response{
			StatusCode:    http.StatusOK,
			ContentLength: 1000,
			Body:          &chunkedBody{remaining: 250, chunk: 250, failErr: errors.New("connection reset")},
		}
	})

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.rar", dest)
	require.Len(t, events, 2)
	assert.Equal(t, DownloadProgress{Received: 250, Total: 1000}, events[0])
	failed, ok := events[1].(DownloadFailed)
	require.True(t, ok)
	assert.True(t, apperr.IsType(failed.Err, apperr.Network))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.EqualValues(t, 250, info.Size())
}

func TestDownload_UnwritableDestination(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	dest := filepath.Join(blocker, "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return textResponse(http.StatusOK, "data")
	})

	events := collect(NewDownloadManager(hc, nil), "https://example.com/Game.rar", dest)
	require.Len(t, events, 1)
	failed, ok := events[0].(DownloadFailed)
	require.True(t, ok)
	assert.True(t, apperr.IsType(failed.Err, apperr.Filesystem))
}

func TestDownload_IsLazyAndRestartable(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	var calls atomic.Int32
	hc := fakeClient(t, &calls, func(*http.Request) *http.Response {
		return textResponse(http.StatusOK, "payload")
	})

	seq := NewDownloadManager(hc, nil).Download(context.Background(), "https://example.com/Game.rar", dest)
	assert.Zero(t, calls.Load(), "nothing happens before ranging")

	var first []DownloadEvent
	for ev := range seq {
		first = append(first, ev)
	}
	assert.Equal(t, DownloadCompleted{Path: dest}, first[len(first)-1])
	assert.EqualValues(t, 1, calls.Load())

	var second []DownloadEvent
	for ev := range seq {
		second = append(second, ev)
	}
	assert.Equal(t, []DownloadEvent{DownloadCompleted{Path: dest}}, second)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDownload_ConsumerCanStopEarly(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return &http.Response{StatusCode: http.StatusOK, ContentLength: 1000, Body: &chunkedBody{remaining: 1000, chunk: 250}}
	})

	count := 0
	for range NewDownloadManager(hc, nil).Download(context.Background(), "https://example.com/Game.rar", dest) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestDownload_InvalidURL(t *testing.T) {
	events := collect(NewDownloadManager(nil, nil), "://bad", filepath.Join(t.TempDir(), "x.rar"))
	require.Len(t, events, 1)
	failed, ok := events[0].(DownloadFailed)
	require.True(t, ok)
	assert.True(t, apperr.IsType(failed.Err, apperr.Validation))
}

func TestDownloadState_String(t *testing.T) {
	assert.Equal(t, "pending", DownloadPending.String())
	assert.Equal(t, "running", DownloadRunning.String())
	assert.Equal(t, "done", DownloadDone.String())
	assert.Equal(t, "error", DownloadError.String())
	assert.Equal(t, "DownloadState(9)", DownloadState(9).String())
}

func TestDownload_CancelledIsNotANetworkError(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "Game.rar")
	hc := fakeClient(t, nil, func(*http.Request) *http.Response {
		return &http.Response{
			StatusCode:    http.StatusOK,
			ContentLength: 1000,
			Body:          &chunkedBody{remaining: 250, chunk: 250, failErr: errors.New("use of closed network connection")},
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var events []DownloadEvent
	for ev := range NewDownloadManager(hc, nil).Download(ctx, "https://example.com/Game.rar", dest) {
		events = append(events, ev)
		if _, ok := ev.(DownloadProgress); ok {
			cancel()
		}
	}

	require.Len(t, events, 2)
	failed, ok := events[1].(DownloadFailed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, context.Canceled)
	assert.False(t, apperr.IsType(failed.Err, apperr.Network))
}
