package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/habedi/smoke/db"
	"github.com/habedi/smoke/library"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// catalogueCmd groups the commands that read and refresh the catalogue cache.
func catalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Manage the game catalogue",
	}

	cmd.AddCommand(
		listCmd(),
		searchCmd(),
		infoCmd(),
		refreshCmd(),
		exportCmd(),
	)

	return cmd
}

// listCmd shows the cached catalogue
func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the list of all games in the catalogue",
		Args:  cobra.NoArgs,
		RunE:  listGames,
	}
}

func listGames(cmd *cobra.Command, args []string) error {
	log.Info().Msg("Listing all games in the catalogue...")

	games, err := gameRepo().List(cmd.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch games from the game catalogue.")
		return fmt.Errorf("unable to list games: %w", err)
	}

	if len(games) == 0 {
		cmd.Println("No games found in the catalogue. Use `smoke catalogue refresh` to update the catalogue.")
		return nil
	}

	printGames(cmd, games)
	log.Info().Msgf("Successfully listed %d games in the catalogue.", len(games))
	return nil
}

// printGames renders games as a table, marking the ones already installed.
func printGames(cmd *cobra.Command, games []db.Game) {
	installed, err := library.Scan(appConfig.AppsDir)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to scan installed games")
	}

	table := newTable(cmd.OutOrStdout(), "Row ID", "Game ID", "Game Title", "Size", "Installed")
	table.SetColMinWidth(2, 40)
	for i, game := range games {
		mark := ""
		if library.IsInstalled(installed, game.Name) {
			mark = "yes"
		}
		table.Append([]string{
			strconv.Itoa(i + 1),
			strconv.Itoa(game.ID),
			strings.ReplaceAll(game.Name, "\n", " "),
			formatSize(game.SizeBytes),
			mark,
		})
	}
	table.Render()
}

// infoCmd shows one catalogue entry
func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [gameID]",
		Short: "Show information about a specific game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseGameIDs(args)
			if err != nil {
				return err
			}
			return showGameInfo(cmd, ids[0])
		},
	}
}

func showGameInfo(cmd *cobra.Command, gameID int) error {
	log.Info().Msgf("Fetching info for game with ID=%d", gameID)

	entry, err := lookupEntry(cmd.Context(), gameID)
	if apperr.IsType(err, apperr.NotFound) {
		cmd.Println("No game found with the specified ID.")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msgf("Failed to fetch info for game with ID=%d", gameID)
		return err
	}

	cmd.Println("Game Information:")
	cmd.Printf("ID: %d\n", entry.ID)
	cmd.Printf("Title: %s\n", entry.Name)
	cmd.Printf("Size: %s\n", formatSize(entry.SizeBytes))
	cmd.Printf("Cover: %s\n", entry.CoverURL)
	cmd.Printf("Download: %s\n", entry.DownloadURL)
	return nil
}

// refreshCmd replaces the cache with the current remote catalogue
func refreshCmd() *cobra.Command {
	var probeSizes bool
	var numThreads int

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Update the catalogue with the latest data from the catalogue server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return refreshCatalogue(cmd, probeSizes, numThreads)
		},
	}

	cmd.Flags().BoolVarP(&probeSizes, "sizes", "s", false, "Ask the download server for sizes the catalogue does not report")
	cmd.Flags().IntVarP(&numThreads, "threads", "t", 0, "Number of concurrent size probes (default from config)")
	return cmd
}

func refreshCatalogue(cmd *cobra.Command, probeSizes bool, numThreads int) error {
	log.Info().Msg("Refreshing the game catalogue...")

	if numThreads == 0 {
		numThreads = appConfig.Threads
	}
	if err := validation.ValidateThreadCount(numThreads); err != nil {
		return apperr.New(apperr.Validation, "invalid --threads", err)
	}

	ctx := cmd.Context()
	cc := catalogueClient()
	entries, err := cc.ListGames(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch the catalogue.")
		return err
	}

	if probeSizes {
		log.Info().Int("threads", numThreads).Msg("Probing archive sizes")
		cc.FillSizes(ctx, entries, numThreads)
	}

	games := make([]db.Game, 0, len(entries))
	for _, e := range entries {
		games = append(games, db.FromEntry(e))
	}
	if err := gameRepo().ReplaceAll(ctx, games); err != nil {
		return err
	}

	cmd.Printf("Refreshing completed successfully. There are %d games in the catalogue.\n", len(games))
	return nil
}

// searchCmd searches for games in the catalogue by ID or title
func searchCmd() *cobra.Command {
	var searchByID bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search for games in the catalogue by title or ID",
		Long: "Search for games in the catalogue. Titles are matched ignoring case, spaces, separators " +
			"and version tags, so 'hollow knight' finds 'Hollow_Knight v1.5'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return searchGames(cmd, args[0], searchByID)
		},
	}

	cmd.Flags().BoolVarP(&searchByID, "id", "i", false, "Treat the query as a game ID")
	return cmd
}

func searchGames(cmd *cobra.Command, query string, searchByID bool) error {
	ctx := cmd.Context()
	var games []db.Game

	if searchByID {
		ids, err := parseGameIDs([]string{query})
		if err != nil {
			return err
		}
		log.Info().Msgf("Searching for game with ID=%d", ids[0])
		game, err := gameRepo().GetByID(ctx, ids[0])
		if err != nil {
			return fmt.Errorf("failed to search the catalogue: %w", err)
		}
		if game != nil {
			games = append(games, *game)
		}
	} else {
		if err := validation.ValidateNonEmptyString("search term", query); err != nil {
			return apperr.New(apperr.Validation, "invalid search term", err)
		}
		log.Info().Msgf("Searching for games with term=%s in its title", query)
		var err error
		games, err = gameRepo().SearchByName(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to search the catalogue: %w", err)
		}
	}

	if len(games) == 0 {
		cmd.Println("No game(s) found matching the search criteria.")
		return nil
	}

	printGames(cmd, games)
	return nil
}

// exportCmd writes the cached catalogue to a JSON or CSV file
func exportCmd() *cobra.Command {
	var exportFormat string

	cmd := &cobra.Command{
		Use:   "export [exportDir]",
		Short: "Export the game catalogue to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return exportCatalogue(cmd, args[0], exportFormat)
		},
	}

	cmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Export format: json or csv")
	return cmd
}

func exportCatalogue(cmd *cobra.Command, exportDir, exportFormat string) error {
	log.Info().Msg("Exporting the game catalogue...")

	exportFormat = strings.ToLower(exportFormat)
	if exportFormat != "json" && exportFormat != "csv" {
		return apperr.New(apperr.Validation, "invalid export format; supported formats: json, csv", nil)
	}
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return apperr.New(apperr.Filesystem, "failed to create export directory", err)
	}

	games, err := gameRepo().List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read the catalogue: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filePath := filepath.Join(exportDir, fmt.Sprintf("smoke_catalogue_%s.%s", timestamp, exportFormat))

	if exportFormat == "json" {
		err = writeGamesToJSON(filePath, games)
	} else {
		err = writeGamesToCSV(filePath, games)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to export the game catalogue.")
		return apperr.New(apperr.Filesystem, "failed to export the game catalogue", err)
	}

	cmd.Printf("Game catalogue exported to %s\n", filePath)
	return nil
}

func writeGamesToJSON(path string, games []db.Game) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	entries := make([]any, 0, len(games))
	for _, g := range games {
		entries = append(entries, g.Entry())
	}
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeGamesToCSV(path string, games []db.Game) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"id", "name", "size_bytes", "download_url"}); err != nil {
		return err
	}
	for _, g := range games {
		size := ""
		if g.SizeBytes != nil {
			size = strconv.FormatInt(*g.SizeBytes, 10)
		}
		if err := w.Write([]string{strconv.Itoa(g.ID), g.Name, size, g.DownloadURL}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
