package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voidhaven/sweeper/internal/pattern"
	"github.com/voidhaven/sweeper/internal/scan"
)

func TestScanProgressRepaintsAndClears(t *testing.T) {
	s := scan.NewScanner(t.TempDir(), 1, pattern.NewMatcher(nil, nil), -1)

	var buf bytes.Buffer
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		showScanProgress(&buf, s, stop)
	}()

	// Long enough for a couple of 100ms repaints.
	time.Sleep(300 * time.Millisecond)
	close(stop)
	<-done

	out := buf.String()
	assert.Contains(t, out, "scanning...")
	assert.Contains(t, out, "entries")
	assert.Contains(t, out, "\r\033[K", "line is cleared before the summary prints")
}
