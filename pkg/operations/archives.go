// Package operations holds maintenance tasks over the download cache and install root.
package operations

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/habedi/smoke/installer"
	"github.com/habedi/smoke/library"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/hasher"
	"github.com/rs/zerolog/log"
)

// Archive is a downloaded archive kept in the downloads directory.
type Archive struct {
	Path      string
	Name      string
	BaseName  string
	Size      int64
	ModTime   time.Time
	Installed bool
}

// ListArchives returns the archives in downloadsDir sorted by name. Checksum sidecars and
// dotfiles are skipped. An archive counts as installed when a game in installed has the same
// title as its base name.
func ListArchives(downloadsDir string, installed []library.InstalledGame) ([]Archive, error) {
	entries, err := os.ReadDir(downloadsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperr.New(apperr.Filesystem, fmt.Sprintf("failed to read %s", downloadsDir), err)
	}

	var archives []Archive
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || hasher.IsSidecar(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Warn().Err(err).Str("file", name).Msg("Skipping archive without stat info")
			continue
		}
		base := installer.BaseName(name)
		archives = append(archives, Archive{
			Path:      filepath.Join(downloadsDir, name),
			Name:      name,
			BaseName:  base,
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			Installed: library.IsInstalled(installed, base),
		})
	}
	sort.Slice(archives, func(i, j int) bool {
		return strings.ToLower(archives[i].Name) < strings.ToLower(archives[j].Name)
	})
	return archives, nil
}

// PruneInstalled deletes the archives whose game is installed, together with their checksum
// sidecars, and returns what was removed. With dryRun set nothing is deleted.
func PruneInstalled(archives []Archive, dryRun bool) ([]Archive, error) {
	var removed []Archive
	for _, a := range archives {
		if !a.Installed {
			continue
		}
		if !dryRun {
			if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return removed, apperr.New(apperr.Filesystem, fmt.Sprintf("failed to remove %s", a.Path), err)
			}
			for _, algo := range hasher.Algorithms {
				_ = os.Remove(hasher.SidecarPath(a.Path, algo))
			}
			log.Info().Str("archive", a.Path).Msg("Removed installed archive")
		}
		removed = append(removed, a)
	}
	return removed, nil
}
