// internal/transport/hub.go
package transport

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/devdussey/wordhex/internal/protocol"
)

// Hub is the server-side pub/sub fabric. Channels are plain strings;
// subscribers are live sessions. Delivery is at-most-once and best-effort:
// a session whose outbound queue is full has the frame dropped. Within a
// single session the outbound queue is FIFO, which preserves per-channel
// ordering on the wire.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Session]struct{}
	log      *logrus.Logger
}

func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		channels: make(map[string]map[*Session]struct{}),
		log:      log,
	}
}

// Publish marshals the envelope once and fans it out to every subscriber
// of its channel. Fan-out never blocks on a slow consumer and does not
// hold any entity lock, so it is safe to call from inside lobby and match
// broadcast hooks.
func (h *Hub) Publish(env protocol.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.log.WithError(err).WithField("channel", env.Channel).Error("failed to marshal envelope")
		return
	}

	h.mu.RLock()
	subs := make([]*Session, 0, len(h.channels[env.Channel]))
	for s := range h.channels[env.Channel] {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	for _, s := range subs {
		s.enqueue(data)
	}
}

// Subscribers reports how many sessions are subscribed to a channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) subscribe(s *Session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.channels[channel]
	if !ok {
		set = make(map[*Session]struct{})
		h.channels[channel] = set
	}
	set[s] = struct{}{}
}

func (h *Hub) unsubscribe(s *Session, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.channels[channel]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
}

// drop removes a closed session from every channel. The server keeps no
// session memory across disconnects; a reconnecting client re-identifies
// and resubscribes from scratch.
func (h *Hub) drop(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel, set := range h.channels {
		delete(set, s)
		if len(set) == 0 {
			delete(h.channels, channel)
		}
	}
}
