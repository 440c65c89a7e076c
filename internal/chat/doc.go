// Package chat implements the core of the Parley chat server: per-connection
// sessions, named broadcast rooms, the room directory, and the connection
// supervisor that accepts clients and reaps dead sessions and empty rooms.
//
// The package is transport-agnostic: anything that can deliver and accept
// lines of text (see LineConn) can host a session, which is how both raw TCP
// connections and WebSocket clients end up in the same rooms.
package chat
