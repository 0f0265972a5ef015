// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package api

import (
	"errors"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/feedline/feedline/internal/auth"
	"github.com/feedline/feedline/internal/blob"
	"github.com/feedline/feedline/internal/fault"
)

// handleUploadImage stores the multipart "image" file and returns its
// reference. A missing or unsupported file is not an error. The optional
// "oldPath" form value names one of the caller's images to remove once the
// new one is stored.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.AuthContextFrom(r.Context()).Require()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fault.Invalid(msgBadBody, []string{"Image is too large."}))
			return
		}
		s.writeError(w, r, fault.Invalid(msgBadBody, []string{"Request body must be multipart form data."}))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil || !blob.Supported(header.Header.Get("Content-Type")) {
		if file != nil {
			_ = file.Close()
		}
		s.writeJSON(w, r, http.StatusOK, map[string]string{"message": "No file provided"})
		return
	}
	defer func() { _ = file.Close() }()

	ref, err := s.images.Put(r.Context(), caller.ID, header.Header.Get("Content-Type"), file)
	if err != nil {
		s.writeError(w, r, fault.Internal("", err))
		return
	}

	if oldPath := r.FormValue("oldPath"); oldPath != "" {
		s.removeOldImage(r, caller.ID, oldPath)
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]string{
		"message":  "File stored.",
		"filePath": ref,
	})
}

// removeOldImage deletes oldPath best-effort. Images uploaded by someone
// else are left alone.
func (s *Server) removeOldImage(r *http.Request, owner ulid.ULID, oldPath string) {
	ctx := r.Context()
	if !blob.OwnedBy(oldPath, owner) {
		s.logger.WarnContext(ctx, "refusing to remove image not uploaded by caller",
			"image", oldPath, "user_id", owner.String())
		return
	}
	if err := s.images.Delete(ctx, oldPath); err != nil {
		s.logger.WarnContext(ctx, "image cleanup failed", "image", oldPath, "error", err)
	}
}
