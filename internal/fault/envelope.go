// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package fault

// internalMessage replaces the message of unclassified errors so causes
// from the store never reach callers.
const internalMessage = "An error occurred."

// Body is the error shape returned to callers.
type Body struct {
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Data    []string `json:"data,omitempty"`
}

// Envelope renders err for a caller.
func Envelope(err error) Body {
	fe, ok := As(err)
	if !ok {
		return Body{Message: internalMessage, Status: KindInternal.Status()}
	}

	msg := fe.Message
	if msg == "" || fe.Kind == KindInternal {
		msg = internalMessage
	}

	body := Body{Message: msg, Status: fe.Kind.Status()}
	if fe.Kind == KindInvalidInput && len(fe.Violations) > 0 {
		body.Data = append([]string(nil), fe.Violations...)
	}
	return body
}
