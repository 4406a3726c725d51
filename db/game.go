package db

import (
	"time"

	"github.com/habedi/smoke/client"
)

// Game is a cached catalogue entry.
type Game struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"index" json:"name"`
	CoverURL    string    `json:"cover_url"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   *int64    `json:"size_bytes,omitempty"`
	UpdatedAt   time.Time `json:"-"`
}

// FromEntry converts a catalogue entry for storage.
func FromEntry(e client.CatalogueEntry) Game {
	return Game{
		ID:          e.ID,
		Name:        e.Name,
		CoverURL:    e.CoverURL,
		DownloadURL: e.DownloadURL,
		SizeBytes:   e.SizeBytes,
	}
}

// Entry converts the cached row back to a catalogue entry.
func (g Game) Entry() client.CatalogueEntry {
	return client.CatalogueEntry{
		ID:          g.ID,
		Name:        g.Name,
		CoverURL:    g.CoverURL,
		DownloadURL: g.DownloadURL,
		SizeBytes:   g.SizeBytes,
	}
}
