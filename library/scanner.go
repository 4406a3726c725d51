// Package library finds installed games under the apps directory and launches them.
package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/naming"
	"github.com/rs/zerolog/log"
)

// hostOS decides which files count as executable. Tests override it.
var hostOS = runtime.GOOS

var gameDirName = regexp.MustCompile(`^\w`)

// InstalledGame is derived from the filesystem on every scan and never persisted. CoverPath and
// ExecutablePath are empty when nothing was found; ExecutablePath always lies under InstallDir.
type InstalledGame struct {
	Name           string `json:"name"`
	InstallDir     string `json:"install_dir"`
	CoverPath      string `json:"cover_path,omitempty"`
	ExecutablePath string `json:"executable_path,omitempty"`
}

// List returns every regular file under dir in depth-first order, siblings sorted by name.
// Unreadable subdirectories are logged and skipped.
func List(dir string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping file without stat info")
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		entries = append(entries, Entry{Path: rel, Mode: info.Mode()})
		return nil
	})
	return entries, err
}

// FindCover returns the first image under dir. Failures are cosmetic and only logged.
func FindCover(dir string) (string, bool) {
	entries, err := List(dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("Cover lookup failed")
		return "", false
	}
	rel, ok := ResolveCover(entries)
	if !ok {
		return "", false
	}
	return filepath.Join(dir, rel), true
}

// FindExecutable returns the executable under dir that best matches the expected names.
func FindExecutable(dir string, expected ...string) (string, bool) {
	entries, err := List(dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("Executable lookup failed")
		return "", false
	}
	return findExecutableIn(dir, entries, expected...)
}

// FindExtracted returns the file under dir that should be made executable after extraction for
// goos. See ResolveExtracted.
func FindExtracted(dir, goos string, expected ...string) (string, bool) {
	entries, err := List(dir)
	if err != nil {
		log.Debug().Err(err).Str("dir", dir).Msg("Executable lookup failed")
		return "", false
	}
	rel, ok := ResolveExtracted(entries, goos, expected...)
	if !ok {
		return "", false
	}
	return filepath.Join(dir, rel), true
}

func findExecutableIn(dir string, entries []Entry, expected ...string) (string, bool) {
	rel, ok := ResolveExecutable(entries, hostOS, expected...)
	if !ok {
		return "", false
	}
	return filepath.Join(dir, rel), true
}

// Scan lists the games installed under root, sorted by name case-insensitively. A directory
// counts as a game when its name starts with a word character other than '_' and an executable
// can be found somewhere below it. A missing root is an empty library.
func Scan(root string) ([]InstalledGame, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperr.New(apperr.Filesystem, fmt.Sprintf("failed to read install root %s", root), err)
	}

	var games []InstalledGame
	for _, d := range dirs {
		name := d.Name()
		if !d.IsDir() || !gameDirName.MatchString(name) || strings.HasPrefix(name, "_") {
			continue
		}

		dir := filepath.Join(root, name)
		entries, err := List(dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("Skipping unreadable game directory")
			continue
		}

		exe, ok := findExecutableIn(dir, entries, name)
		if !ok {
			log.Debug().Str("dir", dir).Msg("No executable found, not listing as installed")
			continue
		}

		game := InstalledGame{Name: name, InstallDir: dir, ExecutablePath: exe}
		if cover, ok := ResolveCover(entries); ok {
			game.CoverPath = filepath.Join(dir, cover)
		}
		games = append(games, game)
	}

	sort.SliceStable(games, func(i, j int) bool {
		return strings.ToLower(games[i].Name) < strings.ToLower(games[j].Name)
	})
	log.Debug().Int("count", len(games)).Str("root", root).Msg("Scanned install root")
	return games, nil
}

// Find returns the installed game whose name matches title: normalized equality first, then
// equal search keys.
func Find(games []InstalledGame, title string) (InstalledGame, error) {
	for _, g := range games {
		if naming.SameTitle(g.Name, title) {
			return g, nil
		}
	}
	key := naming.Key(title)
	for _, g := range games {
		if key != "" && naming.Key(g.Name) == key {
			return g, nil
		}
	}
	return InstalledGame{}, apperr.New(apperr.NotFound, fmt.Sprintf("game %q is not installed", title), nil)
}

// IsInstalled reports whether any game in games has the same title.
func IsInstalled(games []InstalledGame, title string) bool {
	_, err := Find(games, title)
	return err == nil
}

// Search keeps the games whose names match query, ignoring spaces, separators and versions.
func Search(games []InstalledGame, query string) []InstalledGame {
	var out []InstalledGame
	for _, g := range games {
		if naming.MatchesQuery(g.Name, query) {
			out = append(out, g)
		}
	}
	return out
}
