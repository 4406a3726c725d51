package library

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/habedi/smoke/pkg/naming"
)

// Entry is one regular file found under a game directory. Path is relative to that directory.
type Entry struct {
	Path string
	Mode fs.FileMode
}

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

var executableExtensions = map[string]bool{
	".exe":      true,
	".sh":       true,
	".x86":      true,
	".x86_64":   true,
	".appimage": true,
}

// IsImage reports whether name looks like cover art.
func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsExecutable reports whether a file can be launched. Known launcher extensions always count;
// on non-Windows hosts an extensionless file with an execute bit counts too.
func IsExecutable(name string, mode fs.FileMode, goos string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if executableExtensions[ext] {
		return true
	}
	return goos != "windows" && ext == "" && mode.IsRegular() && mode.Perm()&0o111 != 0
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveCover returns the first image in listing order.
func ResolveCover(entries []Entry) (string, bool) {
	for _, e := range entries {
		if IsImage(e.Path) {
			return e.Path, true
		}
	}
	return "", false
}

// ResolveExecutable picks the executable that best matches any of the expected names. The
// candidates are ranked in three tiers and the first hit wins:
//
//  1. file stem equals an expected name after normalization
//  2. the normalized keys contain one another
//  3. the first executable in listing order
func ResolveExecutable(entries []Entry, goos string, expected ...string) (string, bool) {
	var candidates []string
	for _, e := range entries {
		if IsExecutable(e.Path, e.Mode, goos) {
			candidates = append(candidates, e.Path)
		}
	}
	return rank(candidates, candidates, expected)
}

// ResolveExtracted picks the file to mark executable in a freshly extracted game. Permission
// bits are not trusted there: on non-Windows hosts every extensionless regular file is a
// candidate too. The tiers are those of ResolveExecutable, except that the last tier prefers
// files already recognised as executable over bare extensionless ones.
func ResolveExtracted(entries []Entry, goos string, expected ...string) (string, bool) {
	var candidates, launchers []string
	for _, e := range entries {
		switch {
		case IsExecutable(e.Path, e.Mode, goos):
			candidates = append(candidates, e.Path)
			launchers = append(launchers, e.Path)
		case goos != "windows" && filepath.Ext(e.Path) == "" && e.Mode.IsRegular():
			candidates = append(candidates, e.Path)
		}
	}
	if len(launchers) == 0 {
		launchers = candidates
	}
	return rank(candidates, launchers, expected)
}

// rank applies the name tiers to candidates and falls back to the first of fallback.
func rank(candidates, fallback, expected []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	var names, keys []string
	for _, name := range expected {
		if n := naming.Normalize(name); n != "" {
			names = append(names, n)
			keys = append(keys, naming.Key(name))
		}
	}

	for _, c := range candidates {
		n := naming.Normalize(stem(c))
		for _, want := range names {
			if n == want {
				return c, true
			}
		}
	}

	for _, c := range candidates {
		k := naming.Key(stem(c))
		if k == "" {
			continue
		}
		for _, want := range keys {
			if strings.Contains(k, want) || strings.Contains(want, k) {
				return c, true
			}
		}
	}

	return fallback[0], true
}
