package library

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/rs/zerolog/log"
)

// Launcher starts installed games. Windows executables go through Wine on other hosts.
type Launcher struct {
	Wine string
	GOOS string

	start func(cmd *exec.Cmd) error
}

// NewLauncher returns a launcher for the current host.
func NewLauncher(wine string) *Launcher {
	if wine == "" {
		wine = "wine"
	}
	return &Launcher{Wine: wine, GOOS: hostOS, start: startDetached}
}

// Command builds the process for game without starting it.
func (l *Launcher) Command(game InstalledGame) (*exec.Cmd, error) {
	exe := game.ExecutablePath
	if exe == "" {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("%s is installed but has no executable", game.Name), nil)
	}
	if _, err := os.Stat(exe); err != nil {
		return nil, apperr.New(apperr.NotFound, fmt.Sprintf("executable for %s is missing", game.Name), err)
	}

	var cmd *exec.Cmd
	if l.GOOS != "windows" && strings.EqualFold(filepath.Ext(exe), ".exe") {
		cmd = exec.Command(l.Wine, exe)
	} else {
		cmd = exec.Command(exe)
	}
	cmd.Dir = filepath.Dir(exe)
	return cmd, nil
}

// Run starts the game and returns without waiting for it to exit.
func (l *Launcher) Run(game InstalledGame) error {
	cmd, err := l.Command(game)
	if err != nil {
		return err
	}
	log.Info().Str("game", game.Name).Strs("args", cmd.Args).Msg("Launching game")
	if err := l.start(cmd); err != nil {
		return apperr.New(apperr.Internal, fmt.Sprintf("failed to launch %s", game.Name), err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
