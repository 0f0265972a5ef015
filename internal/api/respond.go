// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/feedline/feedline/internal/fault"
	"github.com/feedline/feedline/pkg/errutil"
)

const maxJSONBody = 1 << 20

const msgBadBody = "Validation failed, entered data is incorrect."

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.DebugContext(r.Context(), "response write failed", "error", err)
	}
}

// writeError renders err as the error envelope. Internal failures are
// logged with their cause; the caller only sees a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	body := fault.Envelope(err)
	if fault.KindOf(err) == fault.KindInternal {
		errutil.LogError(r.Context(), s.logger, "request failed", err)
	}
	s.writeJSON(w, r, body.Status, body)
}

// decodeJSON reads a JSON body into v. Malformed bodies are InvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fault.Invalid(msgBadBody, []string{"Request body is too large."})
		case errors.Is(err, io.EOF):
			return fault.Invalid(msgBadBody, []string{"Request body is required."})
		default:
			return fault.Invalid(msgBadBody, []string{"Request body must be valid JSON."})
		}
	}
	return nil
}
