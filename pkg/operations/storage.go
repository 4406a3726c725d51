package operations

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/habedi/smoke/acquire"
	"github.com/habedi/smoke/client"
)

// Estimate summarizes how much a batch of acquisitions will download.
type Estimate struct {
	Bytes   int64 // known sizes of archives not yet downloaded
	Cached  int   // archives already on disk
	Unknown int   // entries whose size the catalogue does not report
}

// EstimateDownload adds up the sizes of the archives entries still need.
func EstimateDownload(entries []client.CatalogueEntry, downloadsDir string) Estimate {
	var est Estimate
	for _, e := range entries {
		archive := filepath.Join(downloadsDir, acquire.FilenameFor(e.Name, e.DownloadURL))
		if _, err := os.Stat(archive); err == nil {
			est.Cached++
			continue
		}
		if e.SizeBytes == nil {
			est.Unknown++
			continue
		}
		est.Bytes += *e.SizeBytes
	}
	return est
}

// DirSize returns the total size of the regular files under dir.
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
