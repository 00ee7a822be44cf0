package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// TraceLogger records raw snapshot frames crossing the feed, one hex
// line per frame, with optional file output.
type TraceLogger interface {
	Frame(in bool, data []byte)
}

// traceLogger implements TraceLogger with thread-safe writes.
type traceLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewTrace creates a TraceLogger. A nil writer yields a no-op logger.
func NewTrace(w io.Writer) TraceLogger {
	return &traceLogger{w: w}
}

// Frame emits one line with timestamp, direction, and hex dump.
// in=true means client->bridge, in=false means bridge->client.
func (t *traceLogger) Frame(in bool, data []byte) {
	if t.w == nil || len(data) == 0 {
		return
	}

	dir := "B->C"
	if in {
		dir = "C->B"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s frame: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05"),
		dir,
		len(data),
		hexbuf.String())

	t.mu.Lock()
	_, _ = t.w.Write([]byte(line))
	t.mu.Unlock()
}
