package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/taskid"
	"github.com/rs/zerolog/log"
)

const downloadBufferSize = 32 * 1024

// errStopped means the consumer stopped iterating. It never reaches callers.
var errStopped = errors.New("consumer stopped")

// DownloadManager streams remote archives to disk.
type DownloadManager struct {
	HTTP    *http.Client
	Limiter *RateLimiter
}

// NewDownloadManager returns a manager using hc, or a client without a timeout when hc is nil.
// A nil limiter leaves downloads unthrottled.
func NewDownloadManager(hc *http.Client, limiter *RateLimiter) *DownloadManager {
	if hc == nil {
		hc = &http.Client{}
	}
	return &DownloadManager{HTTP: hc, Limiter: limiter}
}

// Download returns a lazy sequence of events for fetching url into dest. Nothing happens until
// the sequence is ranged over, and each range starts over. The sequence yields a
// DownloadProgress per received chunk and ends with exactly one DownloadCompleted or
// DownloadFailed.
//
// An existing dest counts as already downloaded: the sequence yields DownloadCompleted without
// touching the network. After a failure the partial file is left in place.
func (m *DownloadManager) Download(ctx context.Context, url, dest string) iter.Seq[DownloadEvent] {
	return func(yield func(DownloadEvent) bool) {
		task := &DownloadTask{
			ID:        taskid.New(),
			SourceURL: url,
			DestPath:  dest,
			State:     DownloadPending,
			StartedAt: time.Now(),
		}
		logger := log.With().Str("task", task.ID).Str("url", url).Str("dest", dest).Logger()

		if _, err := os.Stat(dest); err == nil {
			task.State = DownloadDone
			logger.Info().Msg("Archive already on disk, skipping download")
			yield(DownloadCompleted{Path: dest})
			return
		}

		err := m.fetch(ctx, task, yield)
		if errors.Is(err, errStopped) {
			logger.Debug().Int64("received", task.ReceivedBytes).Msg("Download abandoned by consumer")
			return
		}
		if err != nil {
			task.State = DownloadError
			logger.Error().Err(err).Int64("received", task.ReceivedBytes).Msg("Download failed")
			yield(DownloadFailed{Err: err})
			return
		}

		task.State = DownloadDone
		logger.Info().Int64("bytes", task.ReceivedBytes).Dur("elapsed", time.Since(task.StartedAt)).Msg("Download finished")
		yield(DownloadCompleted{Path: dest})
	}
}

func (m *DownloadManager) fetch(ctx context.Context, task *DownloadTask, yield func(DownloadEvent) bool) error {
	req, err := createRequest(ctx, http.MethodGet, task.SourceURL)
	if err != nil {
		return err
	}
	resp, err := sendRequest(m.HTTP, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return cancelled(task, ctxErr)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.ContentLength > 0 {
		task.TotalBytes = resp.ContentLength
	}

	if err := os.MkdirAll(filepath.Dir(task.DestPath), 0o755); err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to create directory for %s", task.DestPath), err)
	}
	file, err := os.Create(task.DestPath)
	if err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to create %s", task.DestPath), err)
	}
	defer file.Close()

	task.State = DownloadRunning
	body := limit(ctx, resp.Body, m.Limiter)
	buf := make([]byte, downloadBufferSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to write %s", task.DestPath), err)
			}
			task.ReceivedBytes += int64(n)
			if !yield(DownloadProgress{Received: task.ReceivedBytes, Total: task.TotalBytes}) {
				return errStopped
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return cancelled(task, ctxErr)
			}
			return apperr.New(apperr.Network, "connection interrupted while downloading", readErr)
		}
	}

	if err := file.Close(); err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to flush %s", task.DestPath), err)
	}
	return nil
}

// cancelled reports a download stopped by its context. The error wraps ctx.Err() so callers can
// tell a shutdown from a transport failure.
func cancelled(task *DownloadTask, ctxErr error) error {
	return fmt.Errorf("download of %s cancelled after %d bytes: %w", task.SourceURL, task.ReceivedBytes, ctxErr)
}
