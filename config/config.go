// Package config loads smoke's settings from ~/.smoke/config.yaml and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/validation"
	"gopkg.in/yaml.v3"
)

const (
	EnvHome         = "SMOKE_HOME"
	EnvCatalogueURL = "SMOKE_CATALOGUE_URL"

	DefaultCatalogueURL = "https://smoke.gingr.workers.dev/api"
	DefaultWine         = "wine"
	DefaultThreads      = 2
)

// Config holds the process-wide paths and knobs shared by every acquisition. An empty
// Extractor means "pick a 7-Zip binary for the host platform"; a zero RateLimit (bytes per
// second) disables throttling.
type Config struct {
	Home         string `yaml:"home"`
	DownloadsDir string `yaml:"downloads_dir"`
	AppsDir      string `yaml:"apps_dir"`
	Database     string `yaml:"database"`
	CatalogueURL string `yaml:"catalogue_url"`
	Extractor    string `yaml:"extractor"`
	Wine         string `yaml:"wine"`
	RateLimit    int64  `yaml:"rate_limit"`
	Threads      int    `yaml:"threads"`
}

// DefaultHome returns $SMOKE_HOME, or ~/.smoke.
func DefaultHome() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		userHome = os.Getenv("HOME")
	}
	return filepath.Join(userHome, ".smoke")
}

// DefaultPath is where Load looks when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(DefaultHome(), "config.yaml")
}

// Default returns the baseline configuration rooted at DefaultHome.
func Default() Config {
	cfg := baseline()
	cfg.ApplyDefaults()
	return cfg
}

func baseline() Config {
	return Config{
		Home:         DefaultHome(),
		CatalogueURL: DefaultCatalogueURL,
		Wine:         DefaultWine,
		Threads:      DefaultThreads,
	}
}

// Load reads the YAML configuration at path. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := baseline()

	contents, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv(EnvCatalogueURL); v != "" {
		cfg.CatalogueURL = v
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults derives the directories that were left empty from Home.
func (c *Config) ApplyDefaults() {
	if c.Home == "" {
		c.Home = DefaultHome()
	}
	if c.DownloadsDir == "" {
		c.DownloadsDir = filepath.Join(c.Home, "downloads")
	}
	if c.AppsDir == "" {
		c.AppsDir = filepath.Join(c.Home, "apps")
	}
	if c.Database == "" {
		c.Database = filepath.Join(c.Home, "games.db")
	}
	if c.CatalogueURL == "" {
		c.CatalogueURL = DefaultCatalogueURL
	}
	if c.Wine == "" {
		c.Wine = DefaultWine
	}
	if c.Threads == 0 {
		c.Threads = DefaultThreads
	}
}

func (c Config) Validate() error {
	if err := validation.ValidateThreadCount(c.Threads); err != nil {
		return apperr.New(apperr.Validation, "invalid threads setting", err)
	}
	if err := validation.ValidateRateLimit(c.RateLimit); err != nil {
		return apperr.New(apperr.Validation, "invalid rate_limit setting", err)
	}
	if err := validation.ValidateDownloadURL(c.CatalogueURL); err != nil {
		return apperr.New(apperr.Validation, "invalid catalogue_url setting", err)
	}
	return nil
}

// EnsureDirs creates the home, downloads and apps directories. It is safe to call repeatedly.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.Home, c.DownloadsDir, c.AppsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.New(apperr.Filesystem, fmt.Sprintf("failed to create %s", dir), err)
		}
	}
	return nil
}
