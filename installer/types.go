package installer

import "fmt"

// InstallState tracks an InstallTask through its lifetime.
type InstallState int

const (
	InstallPending InstallState = iota
	InstallExtracting
	InstallFinalizing
	InstallDone
	InstallError
)

func (s InstallState) String() string {
	switch s {
	case InstallPending:
		return "pending"
	case InstallExtracting:
		return "extracting"
	case InstallFinalizing:
		return "finalizing"
	case InstallDone:
		return "done"
	case InstallError:
		return "error"
	default:
		return fmt.Sprintf("InstallState(%d)", int(s))
	}
}

// InstallTask is created per Install call and is terminal once Install yields its last event.
type InstallTask struct {
	ID                  string
	ArchivePath         string
	DestDir             string
	State               InstallState
	LastProgressPercent int
}

// InstallEvent is one of InstallPercent, InstallMessage, InstallCompleted or InstallFailed.
type InstallEvent interface {
	isInstallEvent()
}

// InstallPercent is a progress report parsed from the extractor output.
type InstallPercent struct {
	Percent int
}

// InstallMessage is extractor output without a percentage, trimmed but otherwise verbatim.
type InstallMessage struct {
	Message string
}

// InstallCompleted carries the archive base name, which is also the install directory name.
type InstallCompleted struct {
	BaseName string
}

// InstallFailed carries the extractor exit code, or -1 when the extractor did not run to
// completion.
type InstallFailed struct {
	ExitCode int
	Err      error
}

func (InstallPercent) isInstallEvent()   {}
func (InstallMessage) isInstallEvent()   {}
func (InstallCompleted) isInstallEvent() {}
func (InstallFailed) isInstallEvent()    {}
