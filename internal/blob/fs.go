// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package blob stores uploaded post images on the local filesystem.
package blob

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Prefix is the leading path segment of every reference.
const Prefix = "images"

// ErrUnsupportedType is returned for content types other than png and jpeg.
var ErrUnsupportedType = errors.New("unsupported image type")

// ErrInvalidRef is returned for references outside the store.
var ErrInvalidRef = errors.New("invalid image reference")

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpg":  ".jpg",
	"image/jpeg": ".jpeg",
}

// FS stores blobs as files, one directory per uploader.
type FS struct {
	root string
}

// NewFS creates the directory if needed.
func NewFS(root string) (*FS, error) {
	if root == "" {
		return nil, oops.Code("BLOB_INVALID_ROOT").Errorf("image directory is required")
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, oops.Code("BLOB_INVALID_ROOT").With("root", root).Wrap(err)
	}
	return &FS{root: root}, nil
}

// Supported reports whether contentType can be stored.
func Supported(contentType string) bool {
	_, ok := extensions[strings.ToLower(contentType)]
	return ok
}

// Put writes r under a fresh name in the owner's directory and returns its
// reference, "images/<owner>/<uuid>.<ext>".
func (s *FS) Put(ctx context.Context, owner ulid.ULID, contentType string, r io.Reader) (string, error) {
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return "", oops.Code("BLOB_UNSUPPORTED_TYPE").With("content_type", contentType).Wrap(ErrUnsupportedType)
	}
	if err := ctx.Err(); err != nil {
		return "", oops.Code("BLOB_PUT_FAILED").Wrap(err)
	}

	dir := filepath.Join(s.root, owner.String())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", oops.Code("BLOB_PUT_FAILED").With("owner", owner.String()).Wrap(err)
	}

	name := uuid.NewString() + ext
	full := filepath.Join(dir, name)

	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", oops.Code("BLOB_PUT_FAILED").With("name", name).Wrap(err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", oops.Code("BLOB_PUT_FAILED").With("name", name).Wrap(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(full)
		return "", oops.Code("BLOB_PUT_FAILED").With("name", name).Wrap(err)
	}
	return path.Join(Prefix, owner.String(), name), nil
}

// Delete removes the blob behind ref. A missing file is not an error.
func (s *FS) Delete(ctx context.Context, ref string) error {
	owner, name, err := resolve(ref)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return oops.Code("BLOB_DELETE_FAILED").Wrap(err)
	}
	full := filepath.Join(s.root, owner.String(), name)
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return oops.Code("BLOB_DELETE_FAILED").With("ref", ref).Wrap(err)
	}
	return nil
}

// Handler serves stored blobs. Mount it at "/images/".
func (s *FS) Handler() http.Handler {
	return http.StripPrefix("/"+Prefix+"/", http.FileServer(http.Dir(s.root)))
}

// Owner returns the user who uploaded the blob behind ref.
func Owner(ref string) (ulid.ULID, bool) {
	owner, _, err := resolve(ref)
	if err != nil {
		return ulid.ULID{}, false
	}
	return owner, true
}

// OwnedBy reports whether ref is a well-formed reference uploaded by owner.
func OwnedBy(ref string, owner ulid.ULID) bool {
	got, ok := Owner(ref)
	return ok && got == owner
}

// resolve splits a reference into its owner and file name. References may
// carry a leading slash; anything other than Prefix/<owner>/<file> is
// rejected.
func resolve(ref string) (ulid.ULID, string, error) {
	invalid := oops.Code("BLOB_INVALID_REF").With("ref", ref).Wrap(ErrInvalidRef)

	clean := path.Clean("/" + strings.ReplaceAll(ref, `\`, "/"))
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	if len(parts) != 3 || parts[0] != Prefix {
		return ulid.ULID{}, "", invalid
	}
	owner, err := ulid.ParseStrict(parts[1])
	if err != nil {
		return ulid.ULID{}, "", invalid
	}
	name := parts[2]
	if name == "" || name == "." || name == ".." {
		return ulid.ULID{}, "", invalid
	}
	return owner, name, nil
}
