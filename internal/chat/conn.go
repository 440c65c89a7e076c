// Package chat defines the LineConn transport abstraction and its TCP
// implementation, which frames the newline-delimited wire protocol.
package chat

import (
	"bufio"
	"io"
	"net"
	"strings"
	"sync"
)

// LineConn is the transport contract a session runs on: read one line of
// text at a time (terminators stripped), write raw text, and close exactly
// once. Implementations must tolerate Close being called more than once.
type LineConn interface {
	// ReadLine blocks until a full line arrives, the peer closes, or an
	// error occurs. The returned line has trailing '\n' and '\r' removed.
	ReadLine() (string, error)

	// WriteString writes the text as-is. Callers append their own line
	// terminator; the welcome prompt deliberately omits one.
	WriteString(s string) error

	// RemoteAddr identifies the peer for logging.
	RemoteAddr() string

	// Close releases the underlying transport. Idempotent.
	Close() error
}

// tcpLineConn frames a net.Conn into newline-delimited text.
type tcpLineConn struct {
	conn      net.Conn
	scanner   *bufio.Scanner
	closeOnce sync.Once
	closeErr  error
}

// NewTCPLineConn wraps a stream connection in the line framing used by the
// chat protocol. maxLineBytes bounds a single line; longer input ends the
// connection with an error rather than growing the buffer without limit.
func NewTCPLineConn(conn net.Conn, maxLineBytes int) LineConn {
	if maxLineBytes <= 0 {
		maxLineBytes = 1024
	}
	scanner := bufio.NewScanner(conn)
	// An empty initial buffer keeps maxLineBytes the true cap; Buffer uses
	// the larger of the two.
	scanner.Buffer(nil, maxLineBytes)
	return &tcpLineConn{conn: conn, scanner: scanner}
}

func (c *tcpLineConn) ReadLine() (string, error) {
	if c.scanner.Scan() {
		// bufio.ScanLines strips the trailing \n and \r; embedded carriage
		// returns from odd clients are stripped here as well.
		return strings.ReplaceAll(c.scanner.Text(), "\r", ""), nil
	}
	if err := c.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (c *tcpLineConn) WriteString(s string) error {
	_, err := c.conn.Write([]byte(s))
	return err
}

func (c *tcpLineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *tcpLineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// isExpectedCloseError reports whether an error is ordinary connection
// teardown noise that should not be logged as a failure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
