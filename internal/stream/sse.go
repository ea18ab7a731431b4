package stream

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// conn writes server-sent events to one client. The first failed write
// closes it, after which every write is a no-op.
type conn struct {
	w       http.ResponseWriter
	flusher http.Flusher
	mu      sync.Mutex
	closed  atomic.Bool
}

func newConn(w http.ResponseWriter, flusher http.Flusher) *conn {
	return &conn{w: w, flusher: flusher}
}

func (c *conn) Close() {
	c.closed.Store(true)
}

func (c *conn) Closed() bool {
	return c.closed.Load()
}

// Send writes one named event. Multi-line data is split across data lines.
func (c *conn) Send(event string, data []byte) bool {
	if c.closed.Load() {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(string(data), "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := c.w.Write([]byte(b.String())); err != nil {
		c.closed.Store(true)
		return false
	}
	c.flusher.Flush()
	return true
}
