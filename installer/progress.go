package installer

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var percentPattern = regexp.MustCompile(`(\d+)%`)

// ParseOutput turns one chunk of extractor output into an event. It returns false for chunks
// that are blank after trimming.
func ParseOutput(chunk string) (InstallEvent, bool) {
	text := strings.TrimSpace(chunk)
	if text == "" {
		return nil, false
	}
	if m := percentPattern.FindStringSubmatch(text); m != nil {
		if p, err := strconv.Atoi(m[1]); err == nil {
			return InstallPercent{Percent: min(p, 100)}, true
		}
	}
	return InstallMessage{Message: text}, true
}

// splitProgress splits on carriage returns, newlines and backspaces. 7-Zip redraws its progress
// line in place with either of them.
func splitProgress(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n\b"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// scanOutput calls emit for every non-blank chunk of r until r is exhausted or emit returns
// false.
func scanOutput(r io.Reader, emit func(string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	scanner.Split(splitProgress)
	for scanner.Scan() {
		chunk := strings.TrimSpace(scanner.Text())
		if chunk == "" {
			continue
		}
		if !emit(chunk) {
			return nil
		}
	}
	return scanner.Err()
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	buf   []byte
	limit int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}
