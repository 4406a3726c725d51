package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/habedi/smoke/pkg/apperr"
	"github.com/rs/zerolog/log"
)

const userAgent = "smoke/1"

// DefaultHTTPClient is used by the catalogue client when none is injected. Downloads use a
// client without a timeout since archives can take minutes.
var DefaultHTTPClient = &http.Client{Timeout: 30 * time.Second}

// createRequest creates an HTTP request bound to ctx.
func createRequest(ctx context.Context, method, urlStr string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("url", urlStr).Msg("Failed to create HTTP request object")
		return nil, apperr.New(apperr.Validation, fmt.Sprintf("invalid request URL %q", urlStr), err)
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// sendRequest sends req and checks for a 2xx status. A 404 maps to a not-found error.
func sendRequest(hc *http.Client, req *http.Request) (*http.Response, error) {
	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("Sending HTTP request")
	resp, err := hc.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, apperr.New(apperr.Network, fmt.Sprintf("%s %s failed", req.Method, req.URL), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		log.Error().Str("method", req.Method).Str("url", req.URL.String()).Int("status", resp.StatusCode).
			Str("body", string(bodyBytes)).Msg("HTTP request returned non-OK status")
		kind := apperr.Network
		if resp.StatusCode == http.StatusNotFound {
			kind = apperr.NotFound
		}
		return nil, apperr.New(kind, fmt.Sprintf("unexpected HTTP status: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)), nil)
	}
	log.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status", resp.StatusCode).Msg("HTTP request successful")
	return resp, nil
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error().Err(err).Int("status", resp.StatusCode).Msg("Failed to read response body")
		return nil, apperr.New(apperr.Network, "failed to read response body", err)
	}
	return body, nil
}
