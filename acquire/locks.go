package acquire

import (
	"context"
	"sync"
)

// titleLocks serializes acquisitions that share an archive base name.
type titleLocks struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func newTitleLocks() *titleLocks {
	return &titleLocks{held: make(map[string]chan struct{})}
}

// lock blocks until key is free or ctx is done.
func (l *titleLocks) lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return func() {
				l.mu.Lock()
				delete(l.held, key)
				l.mu.Unlock()
				close(done)
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
