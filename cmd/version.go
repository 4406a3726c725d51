package cmd

import (
	"runtime"

	"github.com/spf13/cobra"
)

// version and commit are overridden at build time with -ldflags "-X".
var (
	version   = "0.1.0"
	commit    = "unknown"
	goVersion = runtime.Version()
	platform  = runtime.GOOS + "/" + runtime.GOARCH
)

func versionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(version)
				return
			}
			cmd.Println("Smoke version:", version)
			cmd.Println("Commit:", commit)
			cmd.Println("Go version:", goVersion)
			cmd.Println("Platform:", platform)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
