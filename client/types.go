package client

import (
	"fmt"
	"time"
)

// CatalogueEntry is one game offered by the remote catalogue. SizeBytes is nil when the API
// does not report a size.
type CatalogueEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	CoverURL    string `json:"cover_url"`
	DownloadURL string `json:"download_url"`
	SizeBytes   *int64 `json:"size_bytes,omitempty"`
}

// DownloadState tracks a DownloadTask through its lifetime.
type DownloadState int

const (
	DownloadPending DownloadState = iota
	DownloadRunning
	DownloadDone
	DownloadError
)

func (s DownloadState) String() string {
	switch s {
	case DownloadPending:
		return "pending"
	case DownloadRunning:
		return "running"
	case DownloadDone:
		return "done"
	case DownloadError:
		return "error"
	default:
		return fmt.Sprintf("DownloadState(%d)", int(s))
	}
}

// DownloadTask is created per Download call and dropped at its terminal event.
type DownloadTask struct {
	ID            string
	SourceURL     string
	DestPath      string
	ReceivedBytes int64
	TotalBytes    int64
	State         DownloadState
	StartedAt     time.Time
}

// DownloadEvent is one of DownloadProgress, DownloadCompleted or DownloadFailed.
type DownloadEvent interface {
	isDownloadEvent()
}

// DownloadProgress reports cumulative bytes. Total is 0 when the server sent no length.
type DownloadProgress struct {
	Received int64
	Total    int64
}

type DownloadCompleted struct {
	Path string
}

type DownloadFailed struct {
	Err error
}

func (DownloadProgress) isDownloadEvent()  {}
func (DownloadCompleted) isDownloadEvent() {}
func (DownloadFailed) isDownloadEvent()    {}
