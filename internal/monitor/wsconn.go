// Package monitor adapts WebSocket connections to the chat core's line
// transport so browser clients join the same rooms as TCP clients.
package monitor

import (
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/parleyhq/parley/internal/chat"
)

// wsLineConn treats each text frame as one line of the chat protocol.
type wsLineConn struct {
	conn *websocket.Conn

	// writeMu serializes frame writes; broadcasts from several rooms'
	// goroutines may hit the same session concurrently.
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newWSLineConn(conn *websocket.Conn) chat.LineConn {
	return &wsLineConn{conn: conn}
}

func (c *wsLineConn) ReadLine() (string, error) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		return strings.Trim(string(data), "\r\n"), nil
	}
}

func (c *wsLineConn) WriteString(s string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

func (c *wsLineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func (c *wsLineConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
