package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	MinThreads = 1
	MaxThreads = 8
)

func ValidateThreadCount(threads int) error {
	if threads < MinThreads || threads > MaxThreads {
		return fmt.Errorf("thread count must be between %d and %d, got %d", MinThreads, MaxThreads, threads)
	}
	return nil
}

func ValidateGameID(id int) error {
	if id <= 0 {
		return fmt.Errorf("game ID must be a positive integer, got %d", id)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateArchiveFilename accepts a bare file name that stays inside the downloads directory.
func ValidateArchiveFilename(name string) error {
	if err := ValidateNonEmptyString("archive filename", name); err != nil {
		return err
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("archive filename must not contain path separators: %q", name)
	}
	return nil
}

// ValidateDownloadURL requires an absolute http(s) URL.
func ValidateDownloadURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid download URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("download URL must use http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("download URL has no host: %q", raw)
	}
	return nil
}

func ValidateRateLimit(bytesPerSecond int64) error {
	if bytesPerSecond < 0 {
		return fmt.Errorf("rate limit cannot be negative, got %d", bytesPerSecond)
	}
	return nil
}
