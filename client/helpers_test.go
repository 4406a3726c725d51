package client

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
)

// roundTripFunc lets tests stand in for the network.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// chunkedBody serves remaining bytes at most chunk at a time, then returns failErr, or io.EOF
// when failErr is nil.
type chunkedBody struct {
	remaining int
	chunk     int
	failErr   error
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if b.remaining == 0 {
		if b.failErr != nil {
			return 0, b.failErr
		}
		return 0, io.EOF
	}
	n := min(b.chunk, b.remaining, len(p))
	for i := 0; i < n; i++ {
		p[i] = 'a'
	}
	b.remaining -= n
	return n, nil
}

func (b *chunkedBody) Close() error { return nil }

func fakeClient(t *testing.T, calls *atomic.Int32, respond func(*http.Request) *http.Response) *http.Client {
	t.Helper()
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if calls != nil {
			calls.Add(1)
		}
		resp := respond(r)
		if resp == nil {
			return nil, errors.New("connection refused")
		}
		resp.Request = r
		if resp.Header == nil {
			resp.Header = make(http.Header)
		}
		return resp, nil
	})}
}

func textResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}
