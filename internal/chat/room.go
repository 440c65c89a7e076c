// Package chat implements named broadcast rooms with self-pruning delivery
// and membership that stays consistent with the directory sweep.
package chat

import (
	"fmt"
	"log"
	"sync"
)

// systemSender tags join/leave notices broadcast on behalf of the server.
const systemSender = "SERVER"

// Room is a named broadcast group. Membership and delivery share one
// critical section, so no two goroutines ever observe the member list
// mid-mutation. Join and leave notices are emitted after that section is
// released; broadcasting from inside it would deadlock on re-entry.
type Room struct {
	name string

	mu      sync.Mutex
	members []*Session
	retired bool
}

func newRoom(name string) *Room {
	return &Room{name: name}
}

// Name returns the room's immutable name.
func (r *Room) Name() string {
	return r.name
}

// Broadcast formats and delivers a message to every live member. A non-empty
// sender renders the line as "[sender]: text"; system notices pass the text
// through unmodified. Members whose sessions are no longer live are dropped
// from the membership in the same pass, so dead sessions never accumulate
// between reaper sweeps.
func (r *Room) Broadcast(text, sender string) {
	formatted := text
	if sender != "" {
		formatted = fmt.Sprintf("[%s]: %s", sender, text)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.members[:0]
	for _, member := range r.members {
		if !member.Live() {
			continue
		}
		member.Send(formatted)
		live = append(live, member)
	}
	for i := len(live); i < len(r.members); i++ {
		r.members[i] = nil
	}
	r.members = live
}

// Add appends the session to the membership and announces it. It returns
// false when the room has already been retired by a directory sweep; the
// caller must then look the room up again and join the fresh instance.
func (r *Room) Add(s *Session) bool {
	r.mu.Lock()
	if r.retired {
		r.mu.Unlock()
		return false
	}
	r.members = append(r.members, s)
	r.mu.Unlock()

	r.Broadcast(s.Name()+" joined the room", systemSender)
	return true
}

// Remove deletes the first occurrence of the session and announces the
// departure. Removing a session that is not a member is a no-op, which
// makes teardown safe to race with the self-pruning broadcast path.
func (r *Room) Remove(s *Session) {
	r.mu.Lock()
	found := false
	for i, member := range r.members {
		if member == s {
			copy(r.members[i:], r.members[i+1:])
			r.members[len(r.members)-1] = nil
			r.members = r.members[:len(r.members)-1]
			found = true
			break
		}
	}
	r.mu.Unlock()

	if found {
		r.Broadcast(s.Name()+" left the room", systemSender)
	}
}

// MemberNames returns the names of the currently live members, snapshot at
// call time.
func (r *Room) MemberNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.members))
	for _, member := range r.members {
		if member.Live() {
			names = append(names, member.Name())
		}
	}
	return names
}

// retireIfEmpty prunes members that are no longer live and, if nothing
// remains, marks the room retired so no further joins can land on it.
// Pruning here covers sessions that died without running their own
// teardown, such as a write failure on a session blocked in a read.
// Called by the directory with its own lock held; the lock ordering is
// always directory then room, never the reverse.
func (r *Room) retireIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.members[:0]
	for _, member := range r.members {
		if member.Live() {
			live = append(live, member)
		}
	}
	for i := len(live); i < len(r.members); i++ {
		r.members[i] = nil
	}
	r.members = live

	if len(r.members) > 0 {
		return false
	}
	r.retired = true
	log.Printf("Removing empty room: %s", r.name)
	return true
}
