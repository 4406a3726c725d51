package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/habedi/smoke/pkg/pool"
	"github.com/rs/zerolog/log"
)

// CatalogueClient reads the remote game catalogue.
type CatalogueClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewCatalogueClient returns a client for baseURL. A nil hc means DefaultHTTPClient.
func NewCatalogueClient(baseURL string, hc *http.Client) *CatalogueClient {
	if hc == nil {
		hc = DefaultHTTPClient
	}
	return &CatalogueClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c *CatalogueClient) getJSON(ctx context.Context, urlStr string, out any) error {
	req, err := createRequest(ctx, http.MethodGet, urlStr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := sendRequest(c.HTTP, req)
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		log.Error().Err(err).Str("body_preview", string(body[:min(len(body), 200)])).Msg("Failed to parse catalogue JSON")
		return apperr.New(apperr.Network, "malformed catalogue response", err)
	}
	return nil
}

// ListGames returns every catalogue entry sorted by name, case-insensitively.
func (c *CatalogueClient) ListGames(ctx context.Context) ([]CatalogueEntry, error) {
	log.Info().Str("url", c.BaseURL).Msg("Fetching catalogue")
	var entries []CatalogueEntry
	if err := c.getJSON(ctx, c.BaseURL+"/games", &entries); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
	log.Info().Int("count", len(entries)).Msg("Successfully fetched catalogue")
	return entries, nil
}

// GetGame returns one entry. An unknown id is an apperr.NotFound error.
func (c *CatalogueClient) GetGame(ctx context.Context, id int) (CatalogueEntry, error) {
	var entry CatalogueEntry
	if err := c.getJSON(ctx, fmt.Sprintf("%s/games/%d", c.BaseURL, id), &entry); err != nil {
		if apperr.IsType(err, apperr.NotFound) {
			return CatalogueEntry{}, apperr.New(apperr.NotFound, fmt.Sprintf("game %d not found in catalogue", id), err)
		}
		return CatalogueEntry{}, fmt.Errorf("failed to get game %d: %w", id, err)
	}
	return entry, nil
}

var contentRangeTotal = regexp.MustCompile(`/(\d+)\s*$`)

// ProbeSize asks the server how large the file at urlStr is, without downloading it. It tries
// HEAD first and falls back to a one-byte ranged GET for servers that reject HEAD. Failures are
// not errors; the size is simply unknown.
func (c *CatalogueClient) ProbeSize(ctx context.Context, urlStr string) (int64, bool) {
	if req, err := createRequest(ctx, http.MethodHead, urlStr); err == nil {
		if resp, err := c.HTTP.Do(req); err == nil {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 && resp.ContentLength > 0 {
				return resp.ContentLength, true
			}
		}
	}

	req, err := createRequest(ctx, http.MethodGet, urlStr)
	if err != nil {
		return 0, false
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", urlStr).Msg("Size probe failed")
		return 0, false
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		m := contentRangeTotal.FindStringSubmatch(resp.Header.Get("Content-Range"))
		if m == nil {
			return 0, false
		}
		size, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || size <= 0 {
			return 0, false
		}
		return size, true
	case http.StatusOK:
		if resp.ContentLength > 0 {
			return resp.ContentLength, true
		}
	}
	return 0, false
}

// FillSizes probes, with up to workers requests in flight, the entries that have no size and
// fills in what the server reports.
func (c *CatalogueClient) FillSizes(ctx context.Context, entries []CatalogueEntry, workers int) {
	var missing []int
	for i, e := range entries {
		if e.SizeBytes == nil && e.DownloadURL != "" {
			missing = append(missing, i)
		}
	}
	_ = pool.Run(ctx, missing, workers, func(ctx context.Context, i int) error {
		if size, ok := c.ProbeSize(ctx, entries[i].DownloadURL); ok {
			entries[i].SizeBytes = &size
		}
		return nil
	})
}
