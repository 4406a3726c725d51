package cmd

import (
	"strconv"

	"github.com/habedi/smoke/library"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/operations"
	"github.com/habedi/smoke/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// libraryCmd groups the commands that inspect installed games.
func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Show installed games",
	}
	cmd.AddCommand(libraryListCmd(), librarySearchCmd())
	return cmd
}

func libraryListCmd() *cobra.Command {
	var showSizes bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the games installed in the apps directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := library.Scan(appConfig.AppsDir)
			if err != nil {
				return err
			}
			if len(games) == 0 {
				cmd.Println("No games installed. Use `smoke acquire` to install one.")
				return nil
			}
			printInstalled(cmd, games, showSizes)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showSizes, "sizes", "s", false, "Show the disk usage of each game")
	return cmd
}

func librarySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search installed games by title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateNonEmptyString("search term", args[0]); err != nil {
				return apperr.New(apperr.Validation, "invalid search term", err)
			}
			games, err := library.Scan(appConfig.AppsDir)
			if err != nil {
				return err
			}
			matches := library.Search(games, args[0])
			if len(matches) == 0 {
				cmd.Println("No installed game matches the search term.")
				return nil
			}
			printInstalled(cmd, matches, false)
			return nil
		},
	}
}

func printInstalled(cmd *cobra.Command, games []library.InstalledGame, showSizes bool) {
	header := []string{"Row ID", "Name", "Executable", "Cover"}
	if showSizes {
		header = append(header, "Size")
	}
	table := newTable(cmd.OutOrStdout(), header...)
	for i, g := range games {
		row := []string{strconv.Itoa(i + 1), g.Name, g.ExecutablePath, g.CoverPath}
		if showSizes {
			size, err := operations.DirSize(g.InstallDir)
			if err != nil {
				log.Warn().Err(err).Str("dir", g.InstallDir).Msg("Failed to measure install size")
				row = append(row, "unknown")
			} else {
				row = append(row, formatBytes(size))
			}
		}
		table.Append(row)
	}
	table.Render()
}

// runCmd launches an installed game.
func runCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "run [title]",
		Short: "Launch an installed game",
		Long:  "Launch an installed game. The title is matched ignoring case, separators and version tags.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := library.Scan(appConfig.AppsDir)
			if err != nil {
				return err
			}
			game, err := library.Find(games, args[0])
			if err != nil {
				return err
			}

			launcher := library.NewLauncher(appConfig.Wine)
			if dryRun {
				c, err := launcher.Command(game)
				if err != nil {
					return err
				}
				cmd.Println(c.String())
				return nil
			}
			if err := launcher.Run(game); err != nil {
				return err
			}
			cmd.Printf("Started %s\n", game.Name)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the command instead of running it")
	return cmd
}
