package chat

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

// startSession runs the full session lifecycle on a goroutine and returns
// a wait function for its completion.
func startSession(s *Session) func() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run()
	}()
	return wg.Wait
}

// connectClient pushes the username and waits until the session has joined
// the default room.
func connectClient(t *testing.T, dir *Directory, name string) (*Session, *scriptConn, func()) {
	t.Helper()
	conn := newScriptConn()
	session := NewSession(conn, dir, nil, NewConfig())
	wait := startSession(session)
	conn.push(name)
	waitFor(t, name+" to join general", func() bool {
		for _, member := range dir.GetOrCreate(DefaultRoom).MemberNames() {
			if member == session.Name() {
				return true
			}
		}
		return false
	})
	return session, conn, wait
}

func TestHandshakeBlankNameDefaultsToAnonymous(t *testing.T) {
	dir := NewDirectory()
	session, conn, wait := connectClient(t, dir, "")

	if session.Name() != DefaultName {
		t.Errorf("Expected name %q, got %q", DefaultName, session.Name())
	}

	out := conn.sent()
	if !strings.HasPrefix(out, "Welcome to the Chat Server!\nEnter your username: ") {
		t.Errorf("Missing welcome prompt, got %q", out)
	}
	if !strings.Contains(out, "[SERVER]: Anonymous joined the room") {
		t.Errorf("Missing join notice, got %q", out)
	}
	if !strings.Contains(out, "Joined room: general\nType '/help' for available commands\n") {
		t.Errorf("Missing join confirmation, got %q", out)
	}

	conn.finish()
	wait()
}

func TestPeerCloseBeforeUsernameEndsSession(t *testing.T) {
	dir := NewDirectory()
	conn := newScriptConn()
	session := NewSession(conn, dir, nil, NewConfig())
	wait := startSession(session)

	conn.finish()
	wait()

	if session.Live() {
		t.Error("Session still live after handshake failure")
	}
	if !conn.isClosed() {
		t.Error("Connection not released after handshake failure")
	}
	if dir.Count() != 0 {
		t.Errorf("No room should have been created, got %d", dir.Count())
	}
}

func TestChatLineBroadcastToRoom(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")
	_, bobConn, bobWait := connectClient(t, dir, "bob")

	bobConn.reset()
	aliceConn.push("hello")

	waitFor(t, "bob to receive the chat line", func() bool {
		return strings.Contains(bobConn.sent(), "[alice]: hello\n")
	})

	aliceConn.finish()
	bobConn.finish()
	aliceWait()
	bobWait()
}

func TestBlankLinesIgnored(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")
	_, bobConn, bobWait := connectClient(t, dir, "bob")

	bobConn.reset()
	aliceConn.push("")
	aliceConn.push("after blank")

	waitFor(t, "bob to receive the second line", func() bool {
		return strings.Contains(bobConn.sent(), "[alice]: after blank\n")
	})
	if strings.Contains(bobConn.sent(), "[alice]: \n") {
		t.Error("Blank line was broadcast")
	}

	aliceConn.finish()
	bobConn.finish()
	aliceWait()
	bobWait()
}

func TestJoinCommandSwitchesRooms(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")
	_, bobConn, bobWait := connectClient(t, dir, "bob")

	bobConn.reset()
	aliceConn.reset()
	aliceConn.push("/join music")

	waitFor(t, "bob to see alice leave", func() bool {
		return strings.Contains(bobConn.sent(), "[SERVER]: alice left the room")
	})
	waitFor(t, "alice join confirmation", func() bool {
		return strings.Contains(aliceConn.sent(), "Joined room: music\n")
	})
	waitFor(t, "alice membership in music", func() bool {
		return memberOf(dir, "music", "alice")
	})
	if memberOf(dir, DefaultRoom, "alice") {
		t.Error("Session still a member of general after switching")
	}

	names := dir.Names()
	seen := map[string]bool{}
	for _, name := range names {
		seen[name] = true
	}
	if !seen["general"] || !seen["music"] {
		t.Errorf("Directory should list general and music, got %v", names)
	}

	aliceConn.finish()
	bobConn.finish()
	aliceWait()
	bobWait()
}

func TestJoinWithoutArgumentSendsUsage(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")

	aliceConn.reset()
	aliceConn.push("/join")

	waitFor(t, "usage reply", func() bool {
		return strings.Contains(aliceConn.sent(), "Usage: /join <room_name>\n")
	})
	if !memberOf(dir, DefaultRoom, "alice") {
		t.Error("Session should remain in general")
	}

	aliceConn.finish()
	aliceWait()
}

func TestLeaveReturnsToGeneral(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")

	aliceConn.push("/join music")
	waitFor(t, "alice in music", func() bool {
		return memberOf(dir, "music", "alice")
	})

	aliceConn.reset()
	aliceConn.push("/leave")

	waitFor(t, "leave confirmation", func() bool {
		return strings.Contains(aliceConn.sent(), "Left room music and joined general\n")
	})
	if !memberOf(dir, DefaultRoom, "alice") {
		t.Error("Expected session back in general")
	}

	aliceConn.finish()
	aliceWait()
}

func TestListCommandShowsRoomMembers(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")
	_, bobConn, bobWait := connectClient(t, dir, "bob")

	aliceConn.reset()
	aliceConn.push("/list")

	waitFor(t, "member list", func() bool {
		out := aliceConn.sent()
		return strings.Contains(out, "Users in room 'general':") &&
			strings.Contains(out, " - alice") &&
			strings.Contains(out, " - bob")
	})

	aliceConn.finish()
	bobConn.finish()
	aliceWait()
	bobWait()
}

func TestRoomsCommandListsDirectory(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")

	aliceConn.push("/join music")
	waitFor(t, "music to exist", func() bool {
		return dir.Count() == 2
	})

	aliceConn.reset()
	aliceConn.push("/rooms")

	waitFor(t, "room list", func() bool {
		out := aliceConn.sent()
		return strings.Contains(out, "Available rooms:") &&
			strings.Contains(out, " - general") &&
			strings.Contains(out, " - music")
	})

	aliceConn.finish()
	aliceWait()
}

func TestUnknownCommandReplyToSenderOnly(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")
	_, bobConn, bobWait := connectClient(t, dir, "bob")

	aliceConn.reset()
	bobConn.reset()
	aliceConn.push("/foo")

	waitFor(t, "unknown-command reply", func() bool {
		return aliceConn.sent() == "Unknown command. Type /help for available commands.\n"
	})
	if got := bobConn.sent(); got != "" {
		t.Errorf("Unknown command leaked to the room: %q", got)
	}

	aliceConn.finish()
	bobConn.finish()
	aliceWait()
	bobWait()
}

func TestHelpCommand(t *testing.T) {
	dir := NewDirectory()
	_, aliceConn, aliceWait := connectClient(t, dir, "alice")

	aliceConn.reset()
	aliceConn.push("/help")

	waitFor(t, "help text", func() bool {
		out := aliceConn.sent()
		return strings.Contains(out, "Available commands:") &&
			strings.Contains(out, "/quit - Disconnect from server")
	})

	aliceConn.finish()
	aliceWait()
}

func TestQuitEndsSession(t *testing.T) {
	dir := NewDirectory()
	alice, aliceConn, aliceWait := connectClient(t, dir, "alice")
	_, bobConn, bobWait := connectClient(t, dir, "bob")

	bobConn.reset()
	aliceConn.push("/quit")
	aliceWait()

	if alice.Live() {
		t.Error("Session still live after /quit")
	}
	if !strings.Contains(aliceConn.sent(), "Goodbye!\n") {
		t.Errorf("Missing farewell, got %q", aliceConn.sent())
	}
	if !aliceConn.isClosed() {
		t.Error("Connection not released after /quit")
	}
	if !strings.Contains(bobConn.sent(), "[SERVER]: alice left the room") {
		t.Errorf("Room did not see the departure: %q", bobConn.sent())
	}

	bobConn.finish()
	bobWait()
}

func TestWriteFailureMarksSessionDead(t *testing.T) {
	dir := NewDirectory()
	alice, conn := newTestSession("alice", dir)

	conn.failWrites(errors.New("broken pipe"))
	alice.Send("anyone there?")

	if alice.Live() {
		t.Error("Session should be marked dead after a failed write")
	}
}

// memberOf reports whether user currently appears in the named room.
func memberOf(dir *Directory, roomName, user string) bool {
	for _, name := range dir.GetOrCreate(roomName).MemberNames() {
		if name == user {
			return true
		}
	}
	return false
}
