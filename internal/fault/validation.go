// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package fault

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FromValidation converts the result of an ozzo-validation run into an
// invalid-input error. Violations are ordered by field name. Rule errors
// that are not field violations become internal errors.
func FromValidation(msg string, err error) error {
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if !errors.As(err, &fields) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return Internal("validation failed", internal)
		}
		return Invalid(msg, []string{err.Error()})
	}

	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	violations := make([]string, 0, len(keys))
	for _, k := range keys {
		violations = append(violations, fields[k].Error())
	}
	return Invalid(msg, violations)
}
