package logging

import (
	"strings"
	"sync"
)

// Capture is an in-memory log sink. It is safe for concurrent use.
type Capture struct {
	mu    sync.Mutex
	lines []string
}

func (c *Capture) append(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	c.mu.Unlock()
}

// String returns every captured line, each terminated by a newline.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		return ""
	}
	return strings.Join(c.lines, "\n") + "\n"
}

// Lines returns a copy of the captured lines.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of captured lines.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Reset discards all captured lines.
func (c *Capture) Reset() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}
