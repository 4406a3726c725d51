package acquire

import "fmt"

// State is the position of one acquisition in Idle -> Downloading -> Installing -> Ready, with
// Failed reachable from Downloading and Installing.
type State int

const (
	Idle State = iota
	Downloading
	Installing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Downloading:
		return "downloading"
	case Installing:
		return "installing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Kind tags an Event.
type Kind int

const (
	DownloadProgress Kind = iota
	DownloadComplete
	DownloadError
	InstallProgress
	InstallComplete
	InstallError
)

func (k Kind) String() string {
	switch k {
	case DownloadProgress:
		return "download-progress"
	case DownloadComplete:
		return "download-complete"
	case DownloadError:
		return "download-error"
	case InstallProgress:
		return "install-progress"
	case InstallComplete:
		return "install-complete"
	case InstallError:
		return "install-error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Request names one title to acquire. It travels with every event of the acquisition.
type Request struct {
	ID       int
	Title    string
	URL      string
	Filename string
}

// Event is one step of an acquisition. State is the state after the event. Which of the other
// fields are set depends on Kind:
//
//	DownloadProgress  Received, Total
//	DownloadComplete  Path
//	DownloadError     Path, Err
//	InstallProgress   Percent, or Message with Percent == -1
//	InstallComplete   BaseName
//	InstallError      ExitCode, Err
type Event struct {
	Kind     Kind
	State    State
	Request  Request
	Received int64
	Total    int64
	Path     string
	Percent  int
	Message  string
	BaseName string
	ExitCode int
	Err      error
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool {
	return e.State == Ready || e.State == Failed
}
