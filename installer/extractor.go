package installer

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/rs/zerolog/log"
)

var pathCandidates = []string{"7z", "7zz"}

// Args returns the extractor arguments: extract with full paths, assume yes, write to destDir
// and report progress on stdout.
func Args(archive, destDir string) []string {
	return []string{"x", "-y", archive, "-o" + destDir, "-bsp1"}
}

// BundledPath is where a packaged build ships its extractor, relative to the executable.
func BundledPath(exeDir, goos string) string {
	name := "7z"
	if goos == "windows" {
		name = "7z.exe"
	}
	return filepath.Join(exeDir, "resources", "7z", goos, name)
}

// LocateExtractor picks the extraction tool. A configured value wins, then a copy bundled next
// to the running binary, then 7z or 7zz on PATH.
func LocateExtractor(configured string) (string, error) {
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
	}
	return locate(configured, exeDir, runtime.GOOS, exec.LookPath)
}

func locate(configured, exeDir, goos string, lookPath func(string) (string, error)) (string, error) {
	if configured != "" {
		if strings.ContainsAny(configured, `/\`) {
			if _, err := os.Stat(configured); err != nil {
				return "", apperr.New(apperr.NotFound, fmt.Sprintf("configured extractor %s not found", configured), err)
			}
			return configured, nil
		}
		path, err := lookPath(configured)
		if err != nil {
			return "", apperr.New(apperr.NotFound, fmt.Sprintf("configured extractor %s not found on PATH", configured), err)
		}
		return path, nil
	}

	if exeDir != "" {
		bundled := BundledPath(exeDir, goos)
		if info, err := os.Stat(bundled); err == nil && !info.IsDir() {
			log.Debug().Str("path", bundled).Msg("Using bundled extractor")
			return bundled, nil
		}
	}

	for _, name := range pathCandidates {
		if path, err := lookPath(name); err == nil {
			log.Debug().Str("path", path).Msg("Using extractor from PATH")
			return path, nil
		}
	}
	return "", apperr.New(apperr.NotFound, "no 7-Zip extractor found; install 7z or set 'extractor' in the config", nil)
}
