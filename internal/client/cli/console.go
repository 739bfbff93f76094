package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/dmitrijs2005/swpa/internal/client/services"
)

// console serializes user-facing output. Session expiry is reported from the
// timer goroutine, so every write, prompts included, goes through mu.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

// Notify implements services.Notifier.
func (c *console) Notify(n services.Notice) {
	if n.Message == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[%s] %s\n", n.Level, n.Message)
}

// Write lets prompt helpers print through the console.
func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *console) Println(a ...any) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Fprintln(c.w, a...)
}

func (c *console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, format, a...)
}
