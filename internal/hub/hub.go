// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package hub fans feed events out to live subscribers.
package hub

import (
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/feedline/feedline/internal/feed"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 100

// Recorder observes hub activity. observability.Metrics implements it.
type Recorder interface {
	SubscriberAdded()
	SubscriberRemoved()
	EventPublished(action string)
	EventDropped(action string)
}

type nopRecorder struct{}

func (nopRecorder) SubscriberAdded()      {}
func (nopRecorder) SubscriberRemoved()    {}
func (nopRecorder) EventPublished(string) {}
func (nopRecorder) EventDropped(string)   {}

// Subscription is a live registration with the hub.
type Subscription struct {
	id ulid.ULID
	ch chan feed.Event
}

// ID identifies the subscription.
func (s *Subscription) ID() ulid.ULID {
	return s.id
}

// Events yields published events. The channel is closed by Unsubscribe or
// Close.
func (s *Subscription) Events() <-chan feed.Event {
	return s.ch
}

// Hub delivers each published event to every current subscriber. Events are
// not retained: subscribers only see events published while subscribed.
type Hub struct {
	mu         sync.RWMutex
	subs       map[ulid.ULID]*Subscription
	closed     bool
	bufferSize int
	logger     *slog.Logger
	recorder   Recorder
}

// Option configures a Hub.
type Option func(*Hub)

// WithBufferSize sets the per-subscriber buffer. Values below 1 are ignored.
func WithBufferSize(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithLogger sets the logger used for drop warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(h *Hub) {
		if r != nil {
			h.recorder = r
		}
	}
}

// New creates a Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		subs:       make(map[ulid.ULID]*Subscription),
		bufferSize: DefaultBufferSize,
		logger:     slog.Default(),
		recorder:   nopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber. After Close it returns a
// subscription whose channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	sub := &Subscription{
		id: ulid.Make(),
		ch: make(chan feed.Event, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	h.recorder.SubscriberAdded()
	return sub
}

// Unsubscribe removes sub. Undelivered events are discarded and the
// channel is closed. Calling it again, or after Close, is a no-op.
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	h.recorder.SubscriberRemoved()
	drainAndClose(sub.ch)
}

// Publish delivers ev to every subscriber without blocking. A subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(ev feed.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	action := string(ev.Action)
	h.recorder.EventPublished(action)

	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			h.recorder.EventDropped(action)
			h.logger.Warn("event dropped: subscriber buffer full",
				"subscription_id", id.String(),
				"action", action,
				"post_id", ev.PostID.String(),
			)
		}
	}
}

// Len returns the number of current subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone. Later Publish calls deliver nothing.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		h.recorder.SubscriberRemoved()
		close(sub.ch)
	}
}

func drainAndClose(ch chan feed.Event) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ feed.Publisher = (*Hub)(nil)
