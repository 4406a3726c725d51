package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/habedi/smoke/acquire"
	"github.com/habedi/smoke/library"
	"github.com/habedi/smoke/pkg/naming"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// progressStep is how often, in percent, plain output reports progress.
const progressStep = 25

// progressPrinter renders the events of one acquisition. On a terminal it draws a progress bar
// per phase; otherwise it prints a line at every progressStep. Printers sharing mu may run
// concurrently.
type progressPrinter struct {
	out  io.Writer
	mu   *sync.Mutex
	bars bool

	bar         *progressbar.ProgressBar
	barKind     acquire.Kind
	lastPercent int
}

func newProgressPrinter(out io.Writer, mu *sync.Mutex, bars bool) *progressPrinter {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &progressPrinter{out: out, mu: mu, bars: bars, lastPercent: -1}
}

func (p *progressPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *progressPrinter) handle(ev acquire.Event) {
	title := ev.Request.Title
	switch ev.Kind {
	case acquire.DownloadProgress:
		if p.bars {
			p.updateBar(ev.Kind, ev.Total, ev.Received, "Downloading "+title, true)
			return
		}
		p.milestone(title, "downloading", percentOf(ev.Received, ev.Total))

	case acquire.DownloadComplete:
		p.finishBar()
		p.printf("%s: archive ready at %s\n", title, ev.Path)

	case acquire.DownloadError:
		p.finishBar()
		p.printf("%s: download failed: %v\n", title, ev.Err)

	case acquire.InstallProgress:
		if ev.Percent < 0 {
			log.Debug().Str("title", title).Str("output", ev.Message).Msg("Extractor output")
			return
		}
		if p.bars {
			p.updateBar(ev.Kind, 100, int64(ev.Percent), "Installing "+title, false)
			return
		}
		p.milestone(title, "installing", ev.Percent)

	case acquire.InstallComplete:
		p.finishBar()
		p.printf("%s: installed as %s\n", title, ev.BaseName)

	case acquire.InstallError:
		p.finishBar()
		if ev.ExitCode >= 0 {
			p.printf("%s: install failed (exit code %d): %v\n", title, ev.ExitCode, ev.Err)
		} else {
			p.printf("%s: install failed: %v\n", title, ev.Err)
		}
	}
}

// milestone prints percent when it reaches the next progressStep.
func (p *progressPrinter) milestone(title, phase string, percent int) {
	if percent < 0 {
		return
	}
	step := percent / progressStep * progressStep
	if step <= p.lastPercent {
		return
	}
	p.lastPercent = step
	p.printf("%s: %s %d%%\n", title, phase, step)
}

func (p *progressPrinter) updateBar(kind acquire.Kind, total, current int64, description string, showBytes bool) {
	if p.bar == nil || p.barKind != kind {
		p.finishBar()
		limit := total
		if limit <= 0 {
			limit = -1
		}
		p.bar = progressbar.NewOptions64(limit,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowBytes(showBytes),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		p.barKind = kind
	}
	_ = p.bar.Set64(current)
}

func (p *progressPrinter) finishBar() {
	p.lastPercent = -1
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	p.bar = nil
}

// reportLaunchable tells the user whether dir holds something that can be started. A title
// without an executable is still installed.
func (p *progressPrinter) reportLaunchable(title, dir string) {
	base := filepath.Base(dir)
	if exe, ok := library.FindExecutable(dir, base, naming.Compact(base)); ok {
		p.printf("%s is ready: %s\n", title, exe)
		return
	}
	log.Warn().Str("title", title).Str("dir", dir).Msg("Installed game has no executable")
	p.printf("%s is installed in %s but no executable was found\n", title, dir)
}

func percentOf(received, total int64) int {
	if total <= 0 {
		return -1
	}
	return int(received * 100 / total)
}
