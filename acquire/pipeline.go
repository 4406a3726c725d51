// Package acquire drives a download and install for one title and reports both as a single
// ordered event stream.
package acquire

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/habedi/smoke/client"
	"github.com/habedi/smoke/installer"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/rs/zerolog/log"
)

// Downloader is satisfied by *client.DownloadManager.
type Downloader interface {
	Download(ctx context.Context, url, dest string) iter.Seq[client.DownloadEvent]
}

// Extractor is satisfied by *installer.Installer.
type Extractor interface {
	Install(ctx context.Context, archive, destDir string) iter.Seq[installer.InstallEvent]
}

// Pipeline acquires titles into AppsDir, keeping archives in DownloadsDir.
type Pipeline struct {
	DownloadsDir string
	AppsDir      string

	downloader Downloader
	extractor  Extractor
	locks      *titleLocks
}

// New returns a pipeline. The directories are expected to exist; see config.EnsureDirs.
func New(downloadsDir, appsDir string, d Downloader, x Extractor) *Pipeline {
	return &Pipeline{
		DownloadsDir: downloadsDir,
		AppsDir:      appsDir,
		downloader:   d,
		extractor:    x,
		locks:        newTitleLocks(),
	}
}

// ArchivePath is where the archive for req is kept.
func (p *Pipeline) ArchivePath(req Request) string {
	return filepath.Join(p.DownloadsDir, req.Filename)
}

// InstallDir is where the archive for req is extracted.
func (p *Pipeline) InstallDir(req Request) string {
	return filepath.Join(p.AppsDir, installer.BaseName(req.Filename))
}

// Acquire returns a lazy sequence of events for downloading and installing req. The events come
// in phase order: download progress, then download-complete or download-error, then install
// progress, then install-complete or install-error. An archive already on disk is not fetched
// again. Failures are reported once and never retried.
//
// Acquisitions of the same archive base name wait for each other.
func (p *Pipeline) Acquire(ctx context.Context, req Request) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if req.Filename == "" {
			req.Filename = FilenameFor(req.Title, req.URL)
		}
		logger := log.With().Int("id", req.ID).Str("title", req.Title).Str("file", req.Filename).Logger()
		archive := p.ArchivePath(req)

		if err := validateFilename(req.Filename); err != nil {
			yield(Event{Kind: DownloadError, State: Failed, Request: req, Path: req.Filename, Err: err})
			return
		}

		unlock, err := p.locks.lock(ctx, installer.BaseName(req.Filename))
		if err != nil {
			yield(Event{Kind: DownloadError, State: Failed, Request: req, Path: req.Filename, Err: err})
			return
		}
		defer unlock()

		state := Downloading
		logger.Info().Str("state", state.String()).Msg("Acquisition started")

		if _, err := os.Stat(archive); err == nil {
			logger.Info().Str("archive", archive).Msg("Archive cached, skipping download")
			state = Installing
			if !yield(Event{Kind: DownloadComplete, State: state, Request: req, Path: archive}) {
				return
			}
		} else {
			ok, cont := p.download(ctx, req, archive, yield)
			if !ok || !cont {
				return
			}
			state = Installing
		}

		destDir := p.InstallDir(req)
		logger.Info().Str("state", state.String()).Str("dest", destDir).Msg("Installing")
		for ev := range p.extractor.Install(ctx, archive, destDir) {
			out, ok := FromInstall(req, ev)
			if !ok {
				continue
			}
			if out.Terminal() {
				logger.Info().Str("state", out.State.String()).Err(out.Err).Msg("Acquisition finished")
				yield(out)
				return
			}
			if !yield(out) {
				return
			}
		}

		err = apperr.New(apperr.Internal, "installer stopped without a result", nil)
		yield(Event{Kind: InstallError, State: Failed, Request: req, ExitCode: apperr.NoExitCode, Err: err})
	}
}

// download forwards the download events. ok is false when the download did not complete; cont
// is false when the consumer stopped listening.
func (p *Pipeline) download(ctx context.Context, req Request, archive string, yield func(Event) bool) (ok, cont bool) {
	for ev := range p.downloader.Download(ctx, req.URL, archive) {
		out, known := FromDownload(req, ev)
		switch {
		case !known:
			continue
		case out.Kind == DownloadComplete:
			return true, yield(out)
		case out.Kind == DownloadError:
			yield(out)
			return false, false
		case !yield(out):
			return false, false
		}
	}
	err := apperr.New(apperr.Internal, "download stopped without a result", nil)
	yield(Event{Kind: DownloadError, State: Failed, Request: req, Path: req.Filename, Err: err})
	return false, false
}

// FromDownload converts a download manager event into the acquisition event for req.
func FromDownload(req Request, ev client.DownloadEvent) (Event, bool) {
	switch e := ev.(type) {
	case client.DownloadProgress:
		return Event{Kind: DownloadProgress, State: Downloading, Request: req, Received: e.Received, Total: e.Total}, true
	case client.DownloadCompleted:
		return Event{Kind: DownloadComplete, State: Installing, Request: req, Path: e.Path}, true
	case client.DownloadFailed:
		return Event{Kind: DownloadError, State: Failed, Request: req, Path: req.Filename, Err: e.Err}, true
	}
	return Event{}, false
}

// FromInstall converts an installer event into the acquisition event for req.
func FromInstall(req Request, ev installer.InstallEvent) (Event, bool) {
	out := Event{Request: req, State: Installing}
	switch e := ev.(type) {
	case installer.InstallPercent:
		out.Kind, out.Percent = InstallProgress, e.Percent
	case installer.InstallMessage:
		out.Kind, out.Percent, out.Message = InstallProgress, -1, e.Message
	case installer.InstallCompleted:
		out.Kind, out.State, out.BaseName = InstallComplete, Ready, e.BaseName
	case installer.InstallFailed:
		out.Kind, out.State, out.ExitCode, out.Err = InstallError, Failed, e.ExitCode, e.Err
	default:
		return Event{}, false
	}
	return out, true
}

func validateFilename(name string) error {
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || installer.BaseName(name) == "" {
		return apperr.New(apperr.Validation, fmt.Sprintf("invalid archive filename %q", name), nil)
	}
	return nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[<>:"/\\|?*]`)
	archiveExt    = regexp.MustCompile(`^\.[A-Za-z0-9]{1,5}$`)
)

// DefaultArchiveExt is used when the download URL does not name an extension.
const DefaultArchiveExt = ".rar"

// FilenameFor names the archive for a title: whitespace becomes '_' and the extension comes from
// the download URL, ".rar" when it has none.
func FilenameFor(title, downloadURL string) string {
	name := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "")
	name = whitespaceRun.ReplaceAllString(name, "_")

	ext := DefaultArchiveExt
	if u, err := url.Parse(downloadURL); err == nil {
		if e := path.Ext(u.Path); archiveExt.MatchString(e) {
			ext = strings.ToLower(e)
		}
	}
	return name + ext
}

// RequestFor builds the acquisition request for a catalogue entry.
func RequestFor(entry client.CatalogueEntry) Request {
	return Request{
		ID:       entry.ID,
		Title:    entry.Name,
		URL:      entry.DownloadURL,
		Filename: FilenameFor(entry.Name, entry.DownloadURL),
	}
}
