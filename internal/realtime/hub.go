package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Instrumentation receives fan-out telemetry. Implemented by the
// metrics service; a nil value disables instrumentation.
type Instrumentation interface {
	RealtimeSubscribed()
	RealtimeUnsubscribed()
	RealtimePublished(kind string, delivered int)
	RealtimeDropped(kind string)
}

// Subscriber is one live connection on a film channel. Events arrive on
// an ordered buffered stream; a subscriber that stops draining has
// events dropped rather than stalling the channel.
type Subscriber struct {
	id       string
	identity Identity
	joinedAt time.Time
	events   chan Event
	hub      *Hub
	filmID   string
	once     sync.Once
}

// Events returns the subscriber's ordered event stream. The channel is
// closed after Leave.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Identity returns the presence identity the subscriber registered with.
func (s *Subscriber) Identity() Identity {
	return s.identity
}

// Leave deregisters the subscriber and closes its stream. Safe to call
// more than once; the websocket session calls it on every exit path.
func (s *Subscriber) Leave() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
	})
}

// channel owns the subscriber set for one film. Membership changes and
// publishes serialize on the same mutex, which is what gives each
// subscriber a per-film ordered stream and keeps connect/disconnect from
// dropping in-flight deliveries to others.
type channel struct {
	filmID string
	mu     sync.Mutex
	subs   map[string]*Subscriber
}

// Hub owns one addressable channel per film id. Channels are created on
// first subscribe and reaped when the last subscriber leaves.
type Hub struct {
	mu       sync.Mutex
	channels map[string]*channel
	buffer   int
	logger   *zap.Logger
	metrics  Instrumentation
}

// NewHub constructs a Hub. buffer is each subscriber's event backlog
// before drops kick in.
func NewHub(buffer int, logger *zap.Logger, metrics Instrumentation) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		channels: make(map[string]*channel),
		buffer:   buffer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Subscribe registers a live connection on the film's channel and
// records presence. The subscriber is added while the hub lock is still
// held: the reaper deletes an empty channel under that same lock, so a
// joiner can never land on a channel between its last leave and its
// removal from the map.
func (h *Hub) Subscribe(filmID string, identity Identity) *Subscriber {
	sub := &Subscriber{
		id:       uuid.NewString(),
		identity: identity,
		joinedAt: time.Now().UTC(),
		events:   make(chan Event, h.buffer),
		hub:      h,
		filmID:   filmID,
	}

	h.mu.Lock()
	ch, ok := h.channels[filmID]
	if !ok {
		ch = &channel{filmID: filmID, subs: make(map[string]*Subscriber)}
		h.channels[filmID] = ch
	}
	ch.mu.Lock()
	ch.subs[sub.id] = sub
	ch.mu.Unlock()
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RealtimeSubscribed()
	}
	h.logger.Debug("realtime subscribe",
		zap.String("film_id", filmID),
		zap.String("user_id", identity.UserID),
	)
	return sub
}

// Publish delivers the event to every current subscriber of the film in
// publish order. The caller never blocks: a full subscriber buffer means
// that subscriber misses the event (logged and counted) while delivery
// to the rest proceeds. Publishing to a film nobody watches is a no-op.
func (h *Hub) Publish(filmID string, kind EventKind, payload interface{}) {
	h.mu.Lock()
	ch, ok := h.channels[filmID]
	h.mu.Unlock()
	if !ok {
		return
	}

	event := Event{Kind: kind, FilmID: filmID, Payload: payload, At: time.Now().UTC()}

	ch.mu.Lock()
	delivered := 0
	for _, sub := range ch.subs {
		select {
		case sub.events <- event:
			delivered++
		default:
			if h.metrics != nil {
				h.metrics.RealtimeDropped(string(kind))
			}
			h.logger.Warn("realtime event dropped, slow subscriber",
				zap.String("film_id", filmID),
				zap.String("kind", string(kind)),
				zap.String("user_id", sub.identity.UserID),
			)
		}
	}
	ch.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RealtimePublished(string(kind), delivered)
	}
}

// Presence lists the members currently subscribed to the film's channel.
func (h *Hub) Presence(filmID string) []PresenceEntry {
	h.mu.Lock()
	ch, ok := h.channels[filmID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()
	entries := make([]PresenceEntry, 0, len(ch.subs))
	for _, sub := range ch.subs {
		entries = append(entries, PresenceEntry{
			UserID:   sub.identity.UserID,
			FullName: sub.identity.FullName,
			JoinedAt: sub.joinedAt,
		})
	}
	return entries
}

func (h *Hub) unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	ch, ok := h.channels[sub.filmID]
	h.mu.Unlock()
	if !ok {
		return
	}

	ch.mu.Lock()
	if _, present := ch.subs[sub.id]; !present {
		ch.mu.Unlock()
		return
	}
	delete(ch.subs, sub.id)
	close(sub.events)
	empty := len(ch.subs) == 0
	ch.mu.Unlock()

	if empty {
		h.mu.Lock()
		// Re-check under the hub lock; a new subscriber may have raced in.
		ch.mu.Lock()
		if len(ch.subs) == 0 {
			delete(h.channels, sub.filmID)
		}
		ch.mu.Unlock()
		h.mu.Unlock()
	}

	if h.metrics != nil {
		h.metrics.RealtimeUnsubscribed()
	}
	h.logger.Debug("realtime leave",
		zap.String("film_id", sub.filmID),
		zap.String("user_id", sub.identity.UserID),
	)
}
