package operations

import (
	"context"

	"github.com/habedi/smoke/pkg/hasher"
	"github.com/habedi/smoke/pkg/pool"
)

// HashResult represents the result of a single file hashing operation.
type HashResult struct {
	File string
	Hash string
	Err  error
}

// GenerateHashes hashes files with up to numThreads workers. The channel yields one result per
// file in completion order and is closed when all are done or ctx is cancelled.
func GenerateHashes(ctx context.Context, files []string, algo string, numThreads int) <-chan HashResult {
	results := make(chan HashResult, len(files))

	go func() {
		defer close(results)
		_ = pool.Run(ctx, files, numThreads, func(ctx context.Context, file string) error {
			sum, err := hasher.File(file, algo)
			results <- HashResult{File: file, Hash: sum, Err: err}
			return err
		})
	}()

	return results
}
