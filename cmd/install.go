package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/habedi/smoke/acquire"
	"github.com/habedi/smoke/installer"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/spf13/cobra"
)

// installCmd extracts a local archive into the apps directory.
func installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install [archive]",
		Short: "Install a game from an archive on disk",
		Long:  "Extract the archive into <apps_dir>/<archive name without extension> and mark its executable.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeInstall(cmd, args[0])
		},
	}
}

func executeInstall(cmd *cobra.Command, archive string) error {
	if _, err := os.Stat(archive); err != nil {
		return apperr.New(apperr.NotFound, fmt.Sprintf("archive %s not found", archive), err)
	}
	inst, err := newInstaller()
	if err != nil {
		return err
	}

	base := installer.BaseName(archive)
	req := acquire.Request{Title: base, Filename: filepath.Base(archive)}
	destDir := filepath.Join(appConfig.AppsDir, base)
	printer := newProgressPrinter(cmd.OutOrStdout(), nil, isTerminal(cmd.OutOrStdout()))

	var last acquire.Event
	for ev := range inst.Install(cmd.Context(), archive, destDir) {
		converted, ok := acquire.FromInstall(req, ev)
		if !ok {
			continue
		}
		printer.handle(converted)
		last = converted
	}
	if last.State != acquire.Ready {
		return outcomeError(last, base)
	}
	printer.reportLaunchable(base, destDir)
	return nil
}
