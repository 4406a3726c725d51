// Package taskid generates the identifiers that tie together the log lines of one task.
package taskid

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// New returns a time-ordered UUIDv7. When the system random source fails it falls back to a
// random UUID, and then to a timestamp, so it never panics.
func New() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	if id, err := uuid.NewRandom(); err == nil {
		return id.String()
	}
	return "task-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}
