package game

import (
	"time"

	"puzzlechess/internal/storage"
)

const (
	cleanupInterval = 5 * time.Minute
	idleTimeout     = 24 * time.Hour
)

// NewHub creates a new hub with cleanup goroutine
func NewHub(replyDelay time.Duration, store *storage.Store) *Hub {
	h := &Hub{
		Games:      make(map[string]*Game),
		ReplyDelay: replyDelay,
		Store:      store,
	}
	// cleanup goroutine
	go func() {
		for {
			time.Sleep(cleanupInterval)
			h.Sweep(time.Now())
		}
	}()
	return h
}

// Sweep drops sessions idle for longer than a day.
func (h *Hub) Sweep(now time.Time) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	for id, g := range h.Games {
		g.Mu.Lock()
		idle := now.Sub(g.LastSeen) > idleTimeout
		if idle {
			g.stopReplyLocked()
		}
		g.Mu.Unlock()
		if idle {
			delete(h.Games, id)
		}
	}
}

// Get retrieves an existing session or creates an idle one
func (h *Hub) Get(id string) *Game {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if g, ok := h.Games[id]; ok {
		return g
	}
	ng := newGame(id, h.ReplyDelay, h.Store)
	h.Games[id] = ng
	return ng
}

// Lookup returns the session for id without creating one.
func (h *Hub) Lookup(id string) (*Game, bool) {
	h.Mu.Lock()
	defer h.Mu.Unlock()
	g, ok := h.Games[id]
	return g, ok
}
