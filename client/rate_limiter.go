package client

import (
	"context"
	"io"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by every download of one manager. The bucket holds at
// most one second worth of bytes.
type RateLimiter struct {
	mu     sync.Mutex
	rate   int64   // bytes per second
	tokens float64 // current available tokens
	last   time.Time
}

// NewRateLimiter returns nil for a non-positive rate, meaning unlimited.
func NewRateLimiter(bytesPerSecond int64) *RateLimiter {
	if bytesPerSecond <= 0 {
		return nil
	}
	return &RateLimiter{rate: bytesPerSecond, tokens: float64(bytesPerSecond), last: time.Now()}
}

// SetRate changes the limit in place. Tokens above the new rate are dropped.
func (l *RateLimiter) SetRate(bytesPerSecond int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = bytesPerSecond
	if l.tokens > float64(bytesPerSecond) {
		l.tokens = float64(bytesPerSecond)
	}
	l.last = time.Now()
}

// Rate returns the current limit in bytes per second.
func (l *RateLimiter) Rate() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}

// take blocks until at least one token is available and returns how many bytes, up to want,
// the caller may read now.
func (l *RateLimiter) take(ctx context.Context, want int) (int, error) {
	for {
		l.mu.Lock()
		if l.rate <= 0 {
			l.mu.Unlock()
			return want, nil
		}
		now := time.Now()
		if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
			l.tokens += elapsed * float64(l.rate)
			if maxTokens := float64(l.rate); l.tokens > maxTokens {
				l.tokens = maxTokens
			}
			l.last = now
		}
		allowed := int(l.tokens)
		rate := l.rate
		l.mu.Unlock()

		if allowed > 0 {
			return min(allowed, want), nil
		}

		// Wait for roughly one token.
		wait := time.Duration(float64(time.Second) / float64(rate))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (l *RateLimiter) consume(n int) {
	l.mu.Lock()
	l.tokens -= float64(n)
	l.mu.Unlock()
}

type limitedReader struct {
	ctx   context.Context
	under io.Reader
	lim   *RateLimiter
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.lim == nil || len(p) == 0 {
		return lr.under.Read(p)
	}
	allowed, err := lr.lim.take(lr.ctx, len(p))
	if err != nil {
		return 0, err
	}
	n, err := lr.under.Read(p[:allowed])
	if n > 0 {
		lr.lim.consume(n)
	}
	return n, err
}

// limit wraps r with lim, or returns r unchanged when lim is nil.
func limit(ctx context.Context, r io.Reader, lim *RateLimiter) io.Reader {
	if lim == nil {
		return r
	}
	return &limitedReader{ctx: ctx, under: r, lim: lim}
}
