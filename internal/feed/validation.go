// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package feed

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/oklog/ulid/v2"

	"github.com/feedline/feedline/internal/blob"
)

// MinFieldLength is the minimum length in characters of a title or content.
const MinFieldLength = 5

// PostInput is the caller-supplied part of a post.
type PostInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageRef string `json:"imageUrl"`
}

func (in *PostInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.ImageRef = strings.TrimSpace(in.ImageRef)
}

// Validate checks title and content, and that a supplied image was uploaded
// by owner. Callers trim first.
func (in PostInput) Validate(owner ulid.ULID) error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is invalid."),
			validation.RuneLength(MinFieldLength, 0).Error("Title is invalid."),
		),
		validation.Field(&in.Content,
			validation.Required.Error("Content is invalid."),
			validation.RuneLength(MinFieldLength, 0).Error("Content is invalid."),
		),
		validation.Field(&in.ImageRef, validation.By(uploadedBy(owner))),
	)
}

func uploadedBy(owner ulid.ULID) validation.RuleFunc {
	return func(value any) error {
		ref, _ := value.(string)
		if ref == "" || blob.OwnedBy(ref, owner) {
			return nil
		}
		return errors.New("Image is invalid.")
	}
}
