// Package chat coordinates session registration, the accept loop, and
// connection cleanup for the Parley server via the Supervisor type.
package chat

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

// Supervisor owns the set of live sessions and the two long-running
// activities of the server: the accept loop and the periodic reaper that
// evicts dead sessions and asks the directory to reclaim empty rooms.
type Supervisor struct {
	cfg   Config
	dir   *Directory
	stats *Stats

	listener net.Listener

	mu       sync.Mutex
	sessions map[*Session]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor serving the given directory. The
// supervisor does not listen until Start is called.
func NewSupervisor(cfg Config, dir *Directory) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		cfg:      sanitizeConfig(cfg),
		dir:      dir,
		stats:    NewStats(),
		sessions: make(map[*Session]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start binds the chat listener and launches the accept loop and the
// reaper. It returns once both are running, or the bind error if the
// listener could not be created. Startup failure is the only fatal error
// in the system; everything past this point is per-session.
func (sv *Supervisor) Start() error {
	listener, err := net.Listen("tcp", sv.cfg.ChatAddr)
	if err != nil {
		return fmt.Errorf("chat listener on %s: %w", sv.cfg.ChatAddr, err)
	}
	sv.listener = listener
	log.Printf("Chat server started on %s", listener.Addr())

	sv.wg.Add(2)
	go func() {
		defer sv.wg.Done()
		sv.acceptLoop()
	}()
	go func() {
		defer sv.wg.Done()
		sv.reaper()
	}()

	return nil
}

// Stop signals the accept loop and the reaper to exit, closes the
// listener, and waits for both to terminate. In-flight sessions are not
// force-cancelled; they end on their own read failure or quit and the
// process exit (or a later reaper pass) cleans up after them.
func (sv *Supervisor) Stop() {
	sv.cancel()
	if sv.listener != nil {
		if err := sv.listener.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing chat listener: %v", err)
		}
	}
	sv.wg.Wait()
	log.Printf("Chat server stopped")
}

// Addr returns the bound listener address, or nil before Start. Useful
// when listening on an ephemeral port.
func (sv *Supervisor) Addr() net.Addr {
	if sv.listener == nil {
		return nil
	}
	return sv.listener.Addr()
}

// Attach adopts a connection from any transport, registers a session for
// it, and runs the session on its own goroutine. The accept loop and the
// WebSocket bridge both funnel through here.
func (sv *Supervisor) Attach(conn LineConn) *Session {
	session := NewSession(conn, sv.dir, sv.stats, sv.cfg)

	sv.mu.Lock()
	sv.sessions[session] = struct{}{}
	sv.mu.Unlock()

	go session.Run()
	return session
}

// SessionCount returns the number of sessions currently registered,
// including any that have died since the last reaper pass.
func (sv *Supervisor) SessionCount() int {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return len(sv.sessions)
}

func (sv *Supervisor) acceptLoop() {
	for {
		conn, err := sv.listener.Accept()
		if err != nil {
			select {
			case <-sv.ctx.Done():
				return
			default:
			}
			log.Printf("Failed to accept client connection: %v", err)
			continue
		}

		select {
		case <-sv.ctx.Done():
			_ = conn.Close()
			return
		default:
		}

		sv.Attach(NewTCPLineConn(conn, sv.cfg.MaxLineBytes))
	}
}

// reaper periodically drops sessions whose transport has died and removes
// rooms with no members. This is the only garbage-collection point for
// rooms; without it, rooms abandoned by /leave or disconnects would
// accumulate for the life of the process.
func (sv *Supervisor) reaper() {
	ticker := time.NewTicker(sv.cfg.ReapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sv.ctx.Done():
			return
		case <-ticker.C:
			sv.reapOnce()
		}
	}
}

func (sv *Supervisor) reapOnce() {
	sv.mu.Lock()
	for session := range sv.sessions {
		if !session.Live() {
			delete(sv.sessions, session)
		}
	}
	active := len(sv.sessions)
	sv.mu.Unlock()

	removed := sv.dir.ReclaimEmpty()
	log.Printf("Cleanup completed. Active clients: %d, rooms reclaimed: %d", active, removed)
}

// Snapshot assembles the current server statistics for the monitoring API.
func (sv *Supervisor) Snapshot() Snapshot {
	sv.mu.Lock()
	clients := make([]string, 0, len(sv.sessions))
	for session := range sv.sessions {
		if session.Live() {
			if name := session.Name(); name != "" {
				clients = append(clients, name)
			}
		}
	}
	sv.mu.Unlock()

	uptime := sv.stats.Uptime().Round(time.Second)
	return Snapshot{
		ActiveClients:     len(clients),
		TotalRooms:        sv.dir.Count(),
		MessagesPerMinute: sv.stats.MessagesPerMinute(),
		ServerStatus:      "Online",
		ConnectedClients:  clients,
		RoomList:          sv.dir.Names(),
		Uptime:            uptime.String(),
		MessageCount:      sv.stats.MessageCount(),
	}
}

// Snapshot is the point-in-time view of server activity served by the
// monitoring API. Field names follow the dashboard's JSON contract.
type Snapshot struct {
	ActiveClients     int      `json:"active_clients"`
	TotalRooms        int      `json:"total_rooms"`
	MessagesPerMinute int      `json:"messages_per_minute"`
	ServerStatus      string   `json:"server_status"`
	ConnectedClients  []string `json:"connected_clients"`
	RoomList          []string `json:"room_list"`
	Uptime            string   `json:"uptime"`
	MessageCount      uint64   `json:"message_count"`
}
