// Package chat drives individual client sessions through the handshake,
// command, and message-broadcast protocol of the Parley chat service.
package chat

import (
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	// DefaultName substitutes for a blank username at the handshake.
	DefaultName = "Anonymous"

	// commandPrefix introduces a command line; everything else is chat.
	commandPrefix = "/"

	welcomeText = "Welcome to the Chat Server!\nEnter your username: "

	helpText = "Available commands:\n" +
		"/help - Show this help message\n" +
		"/rooms - List all available rooms\n" +
		"/join <room> - Join a room\n" +
		"/leave - Leave current room\n" +
		"/list - List users in current room\n" +
		"/quit - Disconnect from server"

	unknownCommandText = "Unknown command. Type /help for available commands."
)

// Session is the server-side state for one connected client. It is shared
// between the supervisor's session set and whichever room it currently
// occupies; the garbage collector frees it once the reaper and the room
// have both dropped their references.
type Session struct {
	id      string
	conn    LineConn
	dir     *Directory
	stats   *Stats
	limiter *tokenBucket

	live      atomic.Bool
	closeOnce sync.Once

	mu   sync.Mutex
	name string

	// room is only touched from the session's own goroutine; rooms and the
	// reaper reference the session, never its room pointer.
	room *Room
}

// NewSession binds a session to a transport connection. The session joins
// no room until Run completes the handshake.
func NewSession(conn LineConn, dir *Directory, stats *Stats, cfg Config) *Session {
	s := &Session{
		id:      uuid.NewString(),
		conn:    conn,
		dir:     dir,
		stats:   stats,
		limiter: newTokenBucket(cfg.RateLimit.Burst, cfg.RateLimit.RefillInterval),
	}
	s.live.Store(true)
	return s
}

// ID returns the session's unique identifier, used for logging.
func (s *Session) ID() string {
	return s.id
}

// Name returns the display name chosen at the handshake, or the empty
// string before it.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// Live reports whether the session's transport is still usable.
func (s *Session) Live() bool {
	return s.live.Load()
}

func (s *Session) markDead() {
	s.live.Store(false)
}

// Send delivers one line to the client, appending the line terminator.
// Delivery is best-effort: a write failure marks the session not-live and
// is otherwise swallowed, so a broken pipe never aborts a room broadcast.
func (s *Session) Send(line string) {
	if !s.Live() {
		return
	}
	if err := s.conn.WriteString(line + "\n"); err != nil {
		s.markDead()
	}
}

// Run executes the session lifecycle: handshake, message loop, teardown.
// It returns when the peer disconnects, an I/O error occurs, or the client
// quits. Intended to run on its own goroutine, one per connection.
func (s *Session) Run() {
	log.Printf("New client connected from %s (session %s)", s.conn.RemoteAddr(), s.id)

	if err := s.handshake(); err != nil {
		log.Printf("Client disconnected during username setup: %v", err)
		s.teardown()
		return
	}

	s.loop()
	s.teardown()
}

// handshake prompts for a username, substitutes the default for a blank
// line, and joins the default room.
func (s *Session) handshake() error {
	if err := s.conn.WriteString(welcomeText); err != nil {
		s.markDead()
		return err
	}

	name, err := s.conn.ReadLine()
	if err != nil {
		s.markDead()
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	s.setName(name)
	log.Printf("Client username set to: %s", name)

	s.joinRoom(DefaultRoom)
	s.Send("Joined room: " + DefaultRoom + "\nType '/help' for available commands")
	return nil
}

// loop reads lines until the session dies. Blank lines are ignored,
// command lines are dispatched, and everything else is broadcast to the
// current room under the sender's name.
func (s *Session) loop() {
	for s.Live() {
		line, err := s.conn.ReadLine()
		if err != nil {
			log.Printf("Client %s disconnected", s.Name())
			s.markDead()
			return
		}

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, commandPrefix) {
			if !s.dispatch(line) {
				s.Send(unknownCommandText)
			}
			continue
		}

		if !s.limiter.take() {
			log.Printf("Rate limit exceeded for %s; discarding message", s.Name())
			continue
		}

		if s.stats != nil {
			s.stats.RecordMessage()
		}
		s.room.Broadcast(line, s.Name())
	}
}

// dispatch interprets a command line. The command set is closed and
// case-sensitive; dispatch returns false when the first token matches no
// known command so the caller can reply with the unknown-command notice.
func (s *Session) dispatch(line string) bool {
	fields := strings.Fields(line)
	command := fields[0]

	switch command {
	case "/help":
		s.Send(helpText)
	case "/rooms":
		s.sendRoomList()
	case "/join":
		arg := ""
		if len(fields) > 1 {
			arg = fields[1]
		}
		s.handleJoin(arg)
	case "/leave":
		s.handleLeave()
	case "/list":
		s.sendMemberList()
	case "/quit":
		s.Send("Goodbye!")
		s.markDead()
	default:
		return false
	}
	return true
}

func (s *Session) handleJoin(name string) {
	if name == "" {
		s.Send("Usage: /join <room_name>")
		return
	}
	if s.room != nil {
		s.room.Remove(s)
		s.room = nil
	}
	s.joinRoom(name)
	s.Send("Joined room: " + name)
}

func (s *Session) handleLeave() {
	if s.room == nil {
		return
	}
	old := s.room.Name()
	s.room.Remove(s)
	s.room = nil
	s.joinRoom(DefaultRoom)
	s.Send("Left room " + old + " and joined " + DefaultRoom)
}

// joinRoom adds the session to the named room, retrying when a lookup
// races the reaper and hands back a room retired in the same instant.
func (s *Session) joinRoom(name string) {
	for {
		room := s.dir.GetOrCreate(name)
		if room.Add(s) {
			s.room = room
			return
		}
	}
}

func (s *Session) sendRoomList() {
	var b strings.Builder
	b.WriteString("Available rooms:")
	for _, name := range s.dir.Names() {
		b.WriteString("\n - ")
		b.WriteString(name)
	}
	s.Send(b.String())
}

func (s *Session) sendMemberList() {
	if s.room == nil {
		return
	}
	var b strings.Builder
	b.WriteString("Users in room '")
	b.WriteString(s.room.Name())
	b.WriteString("':")
	for _, name := range s.room.MemberNames() {
		b.WriteString("\n - ")
		b.WriteString(name)
	}
	s.Send(b.String())
}

// teardown leaves the current room, announcing the departure, and releases
// the transport. Safe to call more than once; the connection is closed
// exactly once.
func (s *Session) teardown() {
	if s.room != nil {
		s.room.Remove(s)
		s.room = nil
	}
	s.markDead()
	s.closeOnce.Do(func() {
		if err := s.conn.Close(); err != nil && !isExpectedCloseError(err) {
			log.Printf("Error closing connection for session %s: %v", s.id, err)
		}
	})
}
