package broadcast

import (
	"sync"

	"connect4-server/models"
)

// Hub fans committed game updates out to per-game subscribers.
type Hub struct {
	subs map[string]map[chan models.Game]struct{}
	mu   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan models.Game]struct{})}
}

// Subscribe registers a buffered channel for gameID. The returned func
// removes and closes it; call it exactly once.
func (h *Hub) Subscribe(gameID string) (<-chan models.Game, func()) {
	ch := make(chan models.Game, 8)
	h.mu.Lock()
	if h.subs[gameID] == nil {
		h.subs[gameID] = make(map[chan models.Game]struct{})
	}
	h.subs[gameID][ch] = struct{}{}
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[gameID], ch)
		if len(h.subs[gameID]) == 0 {
			delete(h.subs, gameID)
		}
		close(ch)
	}
}

// Publish never blocks; a subscriber with a full buffer misses the update
// and picks up the state with the next one.
func (h *Hub) Publish(game *models.Game) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[game.UUID] {
		select {
		case ch <- *game:
		default:
		}
	}
}

// Subscribers reports how many listeners gameID has.
func (h *Hub) Subscribers(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[gameID])
}
