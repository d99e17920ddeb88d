// Package session holds the live conversation state of connected widgets.
//
// The Registry is owned by the connection layer and handed to the flow
// engine. Turns on one session are serialized through WithLock. An optional
// Presence publishes which transcripts the live sessions own, so other
// instances sharing the database can tell them from orphans.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/SiteBot/internal/models"
)

// DefaultPresenceTimeout bounds each presence call made from Put and Delete.
const DefaultPresenceTimeout = 2 * time.Second

// Presence records ownership of a live session's transcript.
type Presence interface {
	Claim(ctx context.Context, chatID string) error
	Release(ctx context.Context, chatID string) error
	// Refresh extends the claims on chatIDs.
	Refresh(ctx context.Context, chatIDs []string) error
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Registry maps connection identities to session state.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*models.SessionState
	locks    map[string]*lockEntry
	presence Presence
}

// Option configures the Registry.
type Option func(*Registry)

// WithPresence publishes session ownership through p.
func WithPresence(p Presence) Option {
	return func(r *Registry) {
		r.presence = p
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*models.SessionState),
		locks:    make(map[string]*lockEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the session for id. Callers mutating the state must hold the
// session lock.
func (r *Registry) Get(id string) (*models.SessionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Put installs state under its SessionID, replacing any previous session,
// and claims its transcript.
func (r *Registry) Put(state *models.SessionState) {
	r.mu.Lock()
	r.sessions[state.SessionID] = state
	r.mu.Unlock()
	r.publish("claim", state.ChatID, r.claim)
}

// Delete removes and returns the session for id, releasing its transcript.
func (r *Registry) Delete(id string) (*models.SessionState, bool) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()
	if ok {
		r.publish("release", s.ChatID, r.release)
	}
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ChatIDs returns the transcript ids of the live sessions.
func (r *Registry) ChatIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.ChatID != "" {
			ids = append(ids, s.ChatID)
		}
	}
	return ids
}

func (r *Registry) claim(ctx context.Context, chatID string) error {
	return r.presence.Claim(ctx, chatID)
}

func (r *Registry) release(ctx context.Context, chatID string) error {
	return r.presence.Release(ctx, chatID)
}

// publish runs a presence call outside the registry mutex. Failures are
// logged; the claim expires on its own.
func (r *Registry) publish(op, chatID string, fn func(ctx context.Context, chatID string) error) {
	if r.presence == nil || chatID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), DefaultPresenceTimeout)
	defer cancel()
	if err := fn(ctx, chatID); err != nil {
		slog.Warn("Registry: presence "+op+" failed", "chatID", chatID, "error", err)
	}
}

// KeepAlive refreshes the presence claims of all live sessions every
// interval until ctx is done. It returns immediately without a Presence.
func (r *Registry) KeepAlive(ctx context.Context, interval time.Duration) {
	if r.presence == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids := r.ChatIDs()
			if len(ids) == 0 {
				continue
			}
			if err := r.presence.Refresh(ctx, ids); err != nil {
				slog.Warn("Registry.KeepAlive: presence refresh failed", "sessions", len(ids), "error", err)
			}
		}
	}
}

// acquire gets or creates a lock entry and increments its reference count.
func (r *Registry) acquire(id string) *lockEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.locks[id]
	if !exists {
		entry = &lockEntry{}
		r.locks[id] = entry
	}
	entry.refs++
	return entry
}

// unref decrements the reference count and deletes the entry if it reaches zero.
func (r *Registry) unref(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(r.locks, id)
	}
}

// WithLock runs fn while holding the turn lock for session id. Sessions
// live in exactly one process, so the lock is local.
func (r *Registry) WithLock(ctx context.Context, id string, fn func(ctx context.Context) error) error {
	entry := r.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		r.unref(id)
	}()
	return fn(ctx)
}
