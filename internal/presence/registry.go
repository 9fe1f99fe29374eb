// Package presence tracks which users currently hold a live realtime connection.
package presence

import (
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/vedran77/vybe/internal/domain"
)

// Connection is a live realtime connection. Push must not block.
type Connection interface {
	Push(data []byte) error
}

// PresenceEncoder renders the presence broadcast sent to every connection after a change.
type PresenceEncoder func(online []domain.UserID) ([]byte, error)

// Registry maps a user to its single active connection.
//
// A newer connection for the same user replaces the older one. Unregister only removes the
// entry when it still points at the connection being torn down, so a late disconnect of a
// superseded connection cannot evict its replacement.
//
// Presence snapshots are taken under the write lock and pushed after it is released. fanoutMu is
// acquired before mu is released, so broadcasts go out in registry order while Lookup only waits
// for the map update.
type Registry struct {
	mu       sync.RWMutex
	fanoutMu sync.Mutex
	conns    map[domain.UserID]Connection
	encode   PresenceEncoder
	log      *slog.Logger
}

type broadcast struct {
	data  []byte
	conns map[domain.UserID]Connection
}

func NewRegistry(log *slog.Logger, encode PresenceEncoder) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		conns:  make(map[domain.UserID]Connection),
		encode: encode,
		log:    log,
	}
}

// Register records conn for userID and returns the connection it superseded, if any.
func (r *Registry) Register(userID domain.UserID, conn Connection) Connection {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = conn
	if prev != nil && prev != conn {
		r.log.Info("presence: connection superseded", "user_id", userID)
	} else {
		prev = nil
	}
	r.log.Debug("presence: registered", "user_id", userID, "online", len(r.conns))
	r.unlockAndBroadcast(r.snapshotLocked())
	return prev
}

// Unregister removes userID only if conn is still its registered connection.
// It reports whether the registry changed.
func (r *Registry) Unregister(userID domain.UserID, conn Connection) bool {
	r.mu.Lock()
	cur, ok := r.conns[userID]
	if !ok || cur != conn {
		r.mu.Unlock()
		r.log.Debug("presence: stale unregister ignored", "user_id", userID)
		return false
	}
	delete(r.conns, userID)
	r.log.Debug("presence: unregistered", "user_id", userID, "online", len(r.conns))
	r.unlockAndBroadcast(r.snapshotLocked())
	return true
}

func (r *Registry) Lookup(userID domain.UserID) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[userID]
	return conn, ok
}

// Online returns the connected user ids in sorted order.
func (r *Registry) Online() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onlineLocked()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Connections returns a snapshot of every registered connection.
func (r *Registry) Connections() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.conns)
}

func (r *Registry) onlineLocked() []domain.UserID {
	online := lo.Keys(r.conns)
	slices.Sort(online)
	return online
}

// snapshotLocked must be called with mu held for writing.
func (r *Registry) snapshotLocked() *broadcast {
	if r.encode == nil || len(r.conns) == 0 {
		return nil
	}
	data, err := r.encode(r.onlineLocked())
	if err != nil {
		r.log.Error("presence: encode broadcast", "error", err)
		return nil
	}
	return &broadcast{data: data, conns: maps.Clone(r.conns)}
}

// unlockAndBroadcast releases mu and pushes b to every connection in the snapshot.
func (r *Registry) unlockAndBroadcast(b *broadcast) {
	if b == nil {
		r.mu.Unlock()
		return
	}
	r.fanoutMu.Lock()
	r.mu.Unlock()
	defer r.fanoutMu.Unlock()

	for userID, conn := range b.conns {
		if err := conn.Push(b.data); err != nil {
			r.log.Warn("presence: broadcast push failed", "user_id", userID, "error", err)
		}
	}
}
