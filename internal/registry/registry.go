// Package registry tracks live websocket connections and the users behind
// them. It is the in-process source of truth for the connected-clients roster.
package registry

import (
	"sort"
	"sync"

	apperrors "github.com/Navau/teslo-shop-nest/pkg/errors"
)

// Client is the send side of a live connection. Implementations must not
// block; slow consumers are the caller's problem to handle.
type Client interface {
	Send(message []byte) bool
}

type entry struct {
	client   Client
	userID   string
	fullName string
	seq      uint64
}

// Registry holds the currently connected clients keyed by connection ID.
// A user connected from several devices has one entry per connection, all
// sharing the same user ID and display name. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a connection for the given user. Registering an already
// registered connection ID replaces the previous entry.
func (r *Registry) Register(connID, userID, fullName string, client Client) error {
	if connID == "" {
		return apperrors.InvalidInput("connection id is required")
	}
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSeq++
	r.entries[connID] = &entry{
		client:   client,
		userID:   userID,
		fullName: fullName,
		seq:      r.nextSeq,
	}

	return nil
}

// Unregister removes a connection. Removing an unknown connection ID is a
// no-op, so disconnect paths can call it unconditionally.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, connID)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// RosterEntry is one live connection in the roster snapshot.
type RosterEntry struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
}

// Roster returns a snapshot of all live connections, ordered by the time
// they connected. A user on several devices appears once per connection.
func (r *Registry) Roster() []RosterEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type connSeq struct {
		entry RosterEntry
		seq   uint64
	}

	conns := make([]connSeq, 0, len(r.entries))
	for id, e := range r.entries {
		conns = append(conns, connSeq{
			entry: RosterEntry{ID: id, FullName: e.fullName},
			seq:   e.seq,
		})
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].seq < conns[j].seq })

	roster := make([]RosterEntry, len(conns))
	for i, c := range conns {
		roster[i] = c.entry
	}
	return roster
}

// FullName returns the display name of the user behind a connection.
func (r *Registry) FullName(connID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connID]
	if !ok {
		return "", apperrors.NotFound("connection", connID)
	}
	return e.fullName, nil
}

// UserID returns the user ID behind a connection.
func (r *Registry) UserID(connID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[connID]
	if !ok {
		return "", apperrors.NotFound("connection", connID)
	}
	return e.userID, nil
}

// Broadcast sends a message to every live connection, including the one that
// originated it. It snapshots the client list under the read lock and sends
// outside it, so a send can never deadlock against register or unregister.
func (r *Registry) Broadcast(message []byte) {
	r.mu.RLock()
	clients := make([]Client, 0, len(r.entries))
	for _, e := range r.entries {
		clients = append(clients, e.client)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.Send(message)
	}
}
