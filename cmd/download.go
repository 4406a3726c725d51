package cmd

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/habedi/smoke/acquire"
	"github.com/habedi/smoke/client"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/hasher"
	"github.com/habedi/smoke/pkg/operations"
	"github.com/habedi/smoke/pkg/pool"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// downloadCmd fetches archives into the downloads directory without installing them.
func downloadCmd() *cobra.Command {
	var numThreads int
	var hashAlgo string

	cmd := &cobra.Command{
		Use:   "download [gameID...]",
		Short: "Download game archives without installing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseGameIDs(args)
			if err != nil {
				return err
			}
			return executeDownload(cmd, ids, numThreads, hashAlgo)
		},
	}

	cmd.Flags().IntVarP(&numThreads, "threads", "t", 0, "Number of archives to download at the same time (default from config)")
	cmd.Flags().StringVarP(&hashAlgo, "hash", "a", "", "Store a checksum next to each archive [md5, sha1, sha256, sha512]")
	return cmd
}

func executeDownload(cmd *cobra.Command, ids []int, numThreads int, hashAlgo string) error {
	ctx := cmd.Context()
	numThreads, err := resolveThreads(numThreads)
	if err != nil {
		return err
	}
	hashAlgo = strings.ToLower(hashAlgo)
	if hashAlgo != "" && !hasher.IsValidAlgo(hashAlgo) {
		return apperr.New(apperr.Validation, "unsupported hash algorithm: "+hashAlgo, nil)
	}

	entries, err := lookupEntries(ctx, ids)
	if err != nil {
		return err
	}
	printEstimate(cmd, operations.EstimateDownload(entries, appConfig.DownloadsDir))

	manager := newDownloadManager()
	out := cmd.OutOrStdout()
	bars := len(entries) == 1 && isTerminal(out)
	var mu sync.Mutex

	errs := pool.Run(ctx, entries, numThreads, func(ctx context.Context, entry client.CatalogueEntry) error {
		req := acquire.RequestFor(entry)
		dest := filepath.Join(appConfig.DownloadsDir, req.Filename)
		printer := newProgressPrinter(out, &mu, bars)

		var last acquire.Event
		for ev := range manager.Download(ctx, req.URL, dest) {
			converted, ok := acquire.FromDownload(req, ev)
			if !ok {
				continue
			}
			printer.handle(converted)
			last = converted
		}
		if last.Kind != acquire.DownloadComplete {
			return outcomeError(last, req.Title)
		}

		if hashAlgo != "" {
			sum, err := hasher.File(dest, hashAlgo)
			if err != nil {
				return err
			}
			if err := hasher.WriteSidecar(dest, hashAlgo, sum); err != nil {
				return err
			}
			log.Info().Str("archive", dest).Str("algo", hashAlgo).Msg("Checksum stored")
		}
		return nil
	})

	return summarize(cmd, "Downloaded", errs)
}
