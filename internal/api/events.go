// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/feedline/feedline/internal/fault"
	"github.com/feedline/feedline/internal/feed"
)

// sseEvent is the SSE event name for post changes.
const sseEvent = "posts"

// handleEvents streams hub events as Server-Sent Events until the client
// disconnects, the hub closes or the server stops. Anyone may listen.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	// Subscribe before the headers go out so a client that has seen them
	// cannot miss an event.
	sub := s.events.Subscribe()
	defer s.events.Unsubscribe(sub)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.WarnContext(r.Context(), "event stream not supported", "error", err)
		return
	}

	s.logger.DebugContext(r.Context(), "event stream opened", "subscription_id", sub.ID().String())

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := s.writeEvent(w, rc, ev); err != nil {
				s.logger.DebugContext(r.Context(), "event stream closed", "error", err)
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, rc *http.ResponseController, ev feed.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fault.Internal("", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", sseEvent, data); err != nil {
		return err //nolint:wrapcheck // connection error
	}
	return rc.Flush() //nolint:wrapcheck // connection error
}
