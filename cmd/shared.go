package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/habedi/smoke/acquire"
	"github.com/habedi/smoke/client"
	"github.com/habedi/smoke/config"
	"github.com/habedi/smoke/db"
	"github.com/habedi/smoke/installer"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/validation"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// appConfig is the configuration loaded by the root command before any subcommand runs.
var appConfig = config.Default()

func gameRepo() db.GameRepository {
	return db.NewGameRepository(db.GetDB())
}

func catalogueClient() *client.CatalogueClient {
	return client.NewCatalogueClient(appConfig.CatalogueURL, nil)
}

// newDownloadManager returns a manager without a request timeout, throttled to the configured
// rate limit.
func newDownloadManager() *client.DownloadManager {
	return client.NewDownloadManager(nil, client.NewRateLimiter(appConfig.RateLimit))
}

func newInstaller() (*installer.Installer, error) {
	extractor, err := installer.LocateExtractor(appConfig.Extractor)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("extractor", extractor).Msg("Using extractor")
	return installer.New(extractor), nil
}

func newPipeline() (*acquire.Pipeline, error) {
	inst, err := newInstaller()
	if err != nil {
		return nil, err
	}
	return acquire.New(appConfig.DownloadsDir, appConfig.AppsDir, newDownloadManager(), inst), nil
}

// lookupEntry returns the catalogue entry with the given ID from the local cache, asking the
// catalogue API (and caching the answer) when the cache does not have it.
func lookupEntry(ctx context.Context, id int) (client.CatalogueEntry, error) {
	if err := validation.ValidateGameID(id); err != nil {
		return client.CatalogueEntry{}, apperr.New(apperr.Validation, "invalid game ID", err)
	}

	repo := gameRepo()
	game, err := repo.GetByID(ctx, id)
	if err != nil {
		return client.CatalogueEntry{}, fmt.Errorf("failed to read the catalogue cache: %w", err)
	}
	if game != nil {
		return game.Entry(), nil
	}

	log.Debug().Int("id", id).Msg("Game not cached, asking the catalogue")
	entry, err := catalogueClient().GetGame(ctx, id)
	if err != nil {
		return client.CatalogueEntry{}, err
	}
	if err := repo.Put(ctx, db.FromEntry(entry)); err != nil {
		log.Warn().Err(err).Int("id", id).Msg("Failed to cache catalogue entry")
	}
	return entry, nil
}

// parseGameIDs converts positional arguments to game IDs.
func parseGameIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err == nil {
			err = validation.ValidateGameID(id)
		}
		if err != nil {
			return nil, apperr.New(apperr.Validation, fmt.Sprintf("invalid game ID %q; it must be a positive integer", arg), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// newTable returns a left-aligned table writing to w.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetRowLine(false)
	return table
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatBytes renders n using binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatSize(size *int64) string {
	if size == nil {
		return "unknown"
	}
	return formatBytes(*size)
}
