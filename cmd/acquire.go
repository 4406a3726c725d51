package cmd

import (
	"context"
	"fmt"
	"sync"

	"github.com/habedi/smoke/acquire"
	"github.com/habedi/smoke/client"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/operations"
	"github.com/habedi/smoke/pkg/pool"
	"github.com/habedi/smoke/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// acquireCmd downloads and installs catalogue games.
func acquireCmd() *cobra.Command {
	var numThreads int

	cmd := &cobra.Command{
		Use:   "acquire [gameID...]",
		Short: "Download and install games from the catalogue",
		Long: "Download the archive of each game (unless it is already in the downloads directory), " +
			"extract it into the apps directory and report the executable to launch.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseGameIDs(args)
			if err != nil {
				return err
			}
			return executeAcquire(cmd, ids, numThreads)
		},
	}

	cmd.Flags().IntVarP(&numThreads, "threads", "t", 0, "Number of games to acquire at the same time (default from config)")
	return cmd
}

func executeAcquire(cmd *cobra.Command, ids []int, numThreads int) error {
	ctx := cmd.Context()
	numThreads, err := resolveThreads(numThreads)
	if err != nil {
		return err
	}

	entries, err := lookupEntries(ctx, ids)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline()
	if err != nil {
		return err
	}

	printEstimate(cmd, operations.EstimateDownload(entries, appConfig.DownloadsDir))

	out := cmd.OutOrStdout()
	bars := len(entries) == 1 && isTerminal(out)
	var mu sync.Mutex

	errs := pool.Run(ctx, entries, numThreads, func(ctx context.Context, entry client.CatalogueEntry) error {
		req := acquire.RequestFor(entry)
		printer := newProgressPrinter(out, &mu, bars)

		var last acquire.Event
		for ev := range pipeline.Acquire(ctx, req) {
			printer.handle(ev)
			last = ev
		}
		if last.State != acquire.Ready {
			return outcomeError(last, req.Title)
		}
		printer.reportLaunchable(req.Title, pipeline.InstallDir(req))
		return nil
	})

	return summarize(cmd, "Acquired", errs)
}

// resolveThreads falls back to the configured thread count when n is zero.
func resolveThreads(n int) (int, error) {
	if n == 0 {
		n = appConfig.Threads
	}
	if err := validation.ValidateThreadCount(n); err != nil {
		return 0, apperr.New(apperr.Validation, "invalid --threads", err)
	}
	return n, nil
}

func lookupEntries(ctx context.Context, ids []int) ([]client.CatalogueEntry, error) {
	entries := make([]client.CatalogueEntry, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		entry, err := lookupEntry(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("game %d: %w", id, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func printEstimate(cmd *cobra.Command, est operations.Estimate) {
	msg := fmt.Sprintf("Download size: %s", formatBytes(est.Bytes))
	if est.Unknown > 0 {
		msg += fmt.Sprintf(" (plus %d of unknown size)", est.Unknown)
	}
	if est.Cached > 0 {
		msg += fmt.Sprintf(", %d already downloaded", est.Cached)
	}
	cmd.Println(msg)
}

// outcomeError is the error for an acquisition whose last event was not a success.
func outcomeError(last acquire.Event, title string) error {
	if last.Err != nil {
		return fmt.Errorf("%s: %w", title, last.Err)
	}
	return apperr.New(apperr.Internal, fmt.Sprintf("%s: stopped before finishing", title), nil)
}

// summarize prints how many items succeeded and returns the first failure.
func summarize(cmd *cobra.Command, verb string, errs []error) error {
	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	cmd.Printf("%s %d of %d games.\n", verb, len(errs)-failed, len(errs))
	if failed > 0 {
		log.Error().Int("failed", failed).Msg("Some games could not be processed")
	}
	return pool.FirstError(errs)
}
