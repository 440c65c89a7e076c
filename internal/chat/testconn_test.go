package chat

import (
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptConn is an in-memory LineConn for driving sessions in tests. Input
// lines are pushed by the test; everything the session writes is recorded.
type scriptConn struct {
	in chan string

	mu       sync.Mutex
	out      []string
	writeErr error
	closed   bool
}

func newScriptConn() *scriptConn {
	return &scriptConn{in: make(chan string, 16)}
}

// push queues one input line for the session to read.
func (c *scriptConn) push(line string) {
	c.in <- line
}

// finish signals end-of-stream; subsequent reads fail like a peer close.
func (c *scriptConn) finish() {
	close(c.in)
}

func (c *scriptConn) ReadLine() (string, error) {
	line, ok := <-c.in
	if !ok {
		return "", io.EOF
	}
	return line, nil
}

func (c *scriptConn) WriteString(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.out = append(c.out, s)
	return nil
}

func (c *scriptConn) RemoteAddr() string { return "test:0" }

func (c *scriptConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *scriptConn) failWrites(err error) {
	c.mu.Lock()
	c.writeErr = err
	c.mu.Unlock()
}

func (c *scriptConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// sent returns everything written so far as one string.
func (c *scriptConn) sent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.out, "")
}

// reset discards recorded output so assertions can focus on what follows.
func (c *scriptConn) reset() {
	c.mu.Lock()
	c.out = nil
	c.mu.Unlock()
}

// newTestSession builds a named live session on a scriptConn without
// running the handshake.
func newTestSession(name string, dir *Directory) (*Session, *scriptConn) {
	conn := newScriptConn()
	session := NewSession(conn, dir, nil, NewConfig())
	session.setName(name)
	return session, conn
}

// waitFor polls the condition until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}
