package installer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutput(t *testing.T) {
	tests := []struct {
		in     string
		want   InstallEvent
		wantOK bool
	}{
		{"  42% 13 - Foo/Foo.exe ", InstallPercent{Percent: 42}, true},
		{"100%", InstallPercent{Percent: 100}, true},
		{"7-Zip 23.01 (x64)", InstallMessage{Message: "7-Zip 23.01 (x64)"}, true},
		{"Everything is Ok", InstallMessage{Message: "Everything is Ok"}, true},
		{"   ", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseOutput(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestScanOutput_SplitsOnRedraws(t *testing.T) {
	var chunks []string
	err := scanOutput(strings.NewReader("Scanning\n 5%\r 10%\b\b\b\b 15%\r\n\nEverything is Ok"), func(s string) bool {
		chunks = append(chunks, s)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Scanning", "5%", "10%", "15%", "Everything is Ok"}, chunks)
}

func TestScanOutput_StopsWhenAsked(t *testing.T) {
	var chunks []string
	err := scanOutput(strings.NewReader("a\nb\nc\n"), func(s string) bool {
		chunks = append(chunks, s)
		return len(chunks) < 2
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, chunks)
}

func TestTailBuffer_KeepsTail(t *testing.T) {
	tb := &tailBuffer{limit: 5}
	_, _ = tb.Write([]byte("hello "))
	_, _ = tb.Write([]byte("world"))
	assert.Equal(t, "world", tb.String())
}
