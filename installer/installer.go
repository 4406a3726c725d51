// Package installer extracts downloaded archives with an external 7-Zip binary.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/habedi/smoke/library"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/naming"
	"github.com/habedi/smoke/pkg/taskid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const stderrLimit = 8 * 1024

// Installer runs the extractor and finalizes the result.
type Installer struct {
	Extractor string
	GOOS      string
}

// New returns an installer that runs the extractor at path.
func New(extractor string) *Installer {
	return &Installer{Extractor: extractor, GOOS: runtime.GOOS}
}

// BaseName is the archive file name without its extension, "Hollow_Knight.rar" -> "Hollow_Knight".
func BaseName(archive string) string {
	base := filepath.Base(archive)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Install returns a lazy sequence of events for extracting archive into destDir. The sequence
// yields InstallPercent or InstallMessage for every chunk of extractor output and ends with
// exactly one InstallCompleted or InstallFailed. Stopping the iteration early kills the
// extractor.
func (in *Installer) Install(ctx context.Context, archive, destDir string) iter.Seq[InstallEvent] {
	return func(yield func(InstallEvent) bool) {
		task := &InstallTask{
			ID:          taskid.New(),
			ArchivePath: archive,
			DestDir:     destDir,
			State:       InstallPending,
		}
		logger := log.With().Str("task", task.ID).Str("archive", archive).Str("dest", destDir).Logger()

		fail := func(code int, err error) {
			task.State = InstallError
			logger.Error().Err(err).Int("exit_code", code).Msg("Install failed")
			yield(InstallFailed{ExitCode: code, Err: err})
		}

		if err := os.MkdirAll(destDir, 0o755); err != nil {
			fail(apperr.NoExitCode, apperr.New(apperr.Filesystem, fmt.Sprintf("failed to create %s", destDir), err))
			return
		}

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		cmd := exec.CommandContext(runCtx, in.Extractor, Args(archive, destDir)...)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			fail(apperr.NoExitCode, apperr.WithExitCode(apperr.NoExitCode, "failed to attach to extractor output", err))
			return
		}
		stderrPipe, err := cmd.StderrPipe()
		if err != nil {
			fail(apperr.NoExitCode, apperr.WithExitCode(apperr.NoExitCode, "failed to attach to extractor diagnostics", err))
			return
		}

		if err := cmd.Start(); err != nil {
			fail(apperr.NoExitCode, apperr.WithExitCode(apperr.NoExitCode, fmt.Sprintf("failed to start extractor %s", in.Extractor), err))
			return
		}
		task.State = InstallExtracting
		logger.Info().Str("extractor", in.Extractor).Msg("Extracting archive")

		stderr := &tailBuffer{limit: stderrLimit}
		chunks := make(chan string)
		var g errgroup.Group
		g.Go(func() error {
			_, err := io.Copy(stderr, stderrPipe)
			return err
		})
		g.Go(func() error {
			defer close(chunks)
			return scanOutput(stdout, func(chunk string) bool {
				select {
				case chunks <- chunk:
					return true
				case <-runCtx.Done():
					return false
				}
			})
		})

		stopped := false
		for chunk := range chunks {
			if stopped {
				continue
			}
			ev, ok := ParseOutput(chunk)
			if !ok {
				continue
			}
			if p, isPercent := ev.(InstallPercent); isPercent {
				task.LastProgressPercent = p.Percent
			}
			if !yield(ev) {
				stopped = true
				cancel()
			}
		}

		readErr := g.Wait()
		waitErr := cmd.Wait()
		if msg := stderr.String(); msg != "" {
			logger.Debug().Str("stderr", msg).Msg("Extractor diagnostics")
		}
		if stopped {
			logger.Debug().Msg("Install abandoned by consumer")
			return
		}

		if waitErr != nil {
			code := apperr.NoExitCode
			var exitErr *exec.ExitError
			if errors.As(waitErr, &exitErr) {
				code = exitErr.ExitCode()
			}
			reason := fmt.Sprintf("extractor exited with code %d", code)
			if msg := stderr.String(); msg != "" {
				reason += ": " + lastLine(msg)
			}
			fail(code, apperr.WithExitCode(code, reason, waitErr))
			return
		}
		if readErr != nil {
			logger.Warn().Err(readErr).Msg("Extractor output was not fully read")
		}

		task.State = InstallFinalizing
		base := BaseName(archive)
		if err := in.finalize(destDir, base); err != nil {
			fail(apperr.NoExitCode, err)
			return
		}

		task.State = InstallDone
		logger.Info().Str("base", base).Msg("Install finished")
		yield(InstallCompleted{BaseName: base})
	}
}

// finalize marks the extracted game executable as runnable. Nothing to do on Windows. Archives
// rarely keep permission bits, so extensionless files count as candidates whatever their mode.
// A missing executable leaves the game installed but unlaunchable.
func (in *Installer) finalize(destDir, base string) error {
	if in.GOOS == "windows" {
		return nil
	}
	exe, ok := library.FindExtracted(destDir, in.GOOS, base, naming.Compact(base))
	if !ok {
		log.Warn().Str("dir", destDir).Str("base", base).Msg("No executable found after extraction")
		return nil
	}
	info, err := os.Stat(exe)
	if err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to stat %s", exe), err)
	}
	if err := os.Chmod(exe, info.Mode().Perm()|0o111); err != nil {
		return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to make %s executable", exe), err)
	}
	log.Debug().Str("exe", exe).Msg("Marked executable")
	return nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
