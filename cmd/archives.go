package cmd

import (
	"strconv"
	"strings"

	"github.com/habedi/smoke/library"
	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/hasher"
	"github.com/habedi/smoke/pkg/operations"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// archivesCmd groups the commands that manage downloaded archives.
func archivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "Manage downloaded archives",
	}
	cmd.AddCommand(archivesListCmd(), hashCmd(), verifyCmd(), pruneCmd())
	return cmd
}

// loadArchives lists the downloads directory, marking archives whose game is installed.
func loadArchives() ([]operations.Archive, error) {
	installed, err := library.Scan(appConfig.AppsDir)
	if err != nil {
		return nil, err
	}
	return operations.ListArchives(appConfig.DownloadsDir, installed)
}

func archivesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the archives in the downloads directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archives, err := loadArchives()
			if err != nil {
				return err
			}
			if len(archives) == 0 {
				cmd.Println("No archives downloaded.")
				return nil
			}
			table := newTable(cmd.OutOrStdout(), "Row ID", "Archive", "Size", "Installed")
			for i, a := range archives {
				mark := ""
				if a.Installed {
					mark = "yes"
				}
				table.Append([]string{strconv.Itoa(i + 1), a.Name, formatBytes(a.Size), mark})
			}
			table.Render()
			return nil
		},
	}
}

func archivePaths(archives []operations.Archive) []string {
	paths := make([]string, 0, len(archives))
	for _, a := range archives {
		paths = append(paths, a.Path)
	}
	return paths
}

// hashCmd computes checksums of the downloaded archives
func hashCmd() *cobra.Command {
	var algo string
	var saveToFile bool
	var numThreads int

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Generate hash values for the downloaded archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algo = strings.ToLower(algo)
			if !hasher.IsValidAlgo(algo) {
				return apperr.New(apperr.Validation, "unsupported hash algorithm: "+algo, nil)
			}
			threads, err := resolveThreads(numThreads)
			if err != nil {
				return err
			}
			archives, err := loadArchives()
			if err != nil {
				return err
			}

			var firstErr error
			for res := range operations.GenerateHashes(cmd.Context(), archivePaths(archives), algo, threads) {
				if res.Err != nil {
					log.Error().Err(res.Err).Str("file", res.File).Msg("Failed to hash archive")
					if firstErr == nil {
						firstErr = res.Err
					}
					continue
				}
				if saveToFile {
					if err := hasher.WriteSidecar(res.File, algo, res.Hash); err != nil {
						return err
					}
					cmd.Printf("Saved %s\n", hasher.SidecarPath(res.File, algo))
					continue
				}
				cmd.Printf("%s hash for \"%s\": %s\n", algo, res.File, res.Hash)
			}
			return firstErr
		},
	}

	cmd.Flags().StringVarP(&algo, "algo", "a", "sha256", "Hash algorithm to use [md5, sha1, sha256, sha512]")
	cmd.Flags().BoolVarP(&saveToFile, "save", "s", false, "Save each hash next to its archive")
	cmd.Flags().IntVarP(&numThreads, "threads", "t", 0, "Number of archives to hash at the same time (default from config)")
	return cmd
}

// verifyCmd checks the archives against their stored checksums
func verifyCmd() *cobra.Command {
	var algo string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the downloaded archives against their saved hashes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algo = strings.ToLower(algo)
			if !hasher.IsValidAlgo(algo) {
				return apperr.New(apperr.Validation, "unsupported hash algorithm: "+algo, nil)
			}
			archives, err := loadArchives()
			if err != nil {
				return err
			}

			mismatched := 0
			for _, a := range archives {
				ok, err := hasher.Verify(a.Path, algo)
				switch {
				case apperr.IsType(err, apperr.NotFound):
					cmd.Printf("%s: no saved %s hash\n", a.Name, algo)
				case err != nil:
					return err
				case ok:
					cmd.Printf("%s: OK\n", a.Name)
				default:
					mismatched++
					cmd.Printf("%s: MISMATCH\n", a.Name)
				}
			}
			if mismatched > 0 {
				return apperr.New(apperr.Validation, strconv.Itoa(mismatched)+" archive(s) do not match their saved hash", nil)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&algo, "algo", "a", "sha256", "Hash algorithm of the saved hashes")
	return cmd
}

// pruneCmd deletes archives of games that are already installed
func pruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete the archives of installed games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			archives, err := loadArchives()
			if err != nil {
				return err
			}
			removed, err := operations.PruneInstalled(archives, dryRun)
			var freed int64
			for _, a := range removed {
				freed += a.Size
				if dryRun {
					cmd.Printf("Would remove %s\n", a.Name)
				} else {
					cmd.Printf("Removed %s\n", a.Name)
				}
			}
			cmd.Printf("%d archive(s), %s\n", len(removed), formatBytes(freed))
			return err
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Only show what would be removed")
	return cmd
}
