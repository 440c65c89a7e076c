// Package chat provides the Directory, the registry mapping room names to
// live Room instances with idle-room reclamation.
package chat

import (
	"log"
	"sync"
)

// DefaultRoom is the room every session joins after the handshake and
// returns to after /leave.
const DefaultRoom = "general"

// Directory maps room names to rooms. It is constructed explicitly and
// passed to the supervisor and sessions rather than living in package
// state, so tests can run isolated registries side by side.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewDirectory creates an empty room registry.
func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room registered under name, creating and
// registering it first if absent. The check and insert happen under one
// lock, so concurrent first lookups of the same name all receive the same
// instance.
func (d *Directory) GetOrCreate(name string) *Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	if room, ok := d.rooms[name]; ok {
		return room
	}
	room := newRoom(name)
	d.rooms[name] = room
	log.Printf("Created new room: %s", name)
	return room
}

// Names returns a snapshot of all registered room names, in no particular
// order.
func (d *Directory) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.rooms))
	for name := range d.rooms {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered rooms.
func (d *Directory) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.rooms)
}

// ReclaimEmpty removes every room with no live members and reports how
// many were reclaimed. Each room is retired under its own lock before
// removal, so a join racing the sweep either lands first (the room
// survives) or observes the retirement and retries against a fresh
// instance.
func (d *Directory) ReclaimEmpty() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	for name, room := range d.rooms {
		if room.retireIfEmpty() {
			delete(d.rooms, name)
			removed++
		}
	}
	return removed
}
