// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package blob_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/internal/blob"
)

var refPattern = regexp.MustCompile(`^images/[0-9A-Z]{26}/[0-9a-f-]{36}\.(png|jpg|jpeg)$`)

func TestFS_PutDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := blob.NewFS(root)
	require.NoError(t, err)

	owner := ulid.Make()

	ref, err := store.Put(ctx, owner, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Regexp(t, refPattern, ref)

	file := filepath.Join(root, owner.String(), filepath.Base(ref))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Delete(ctx, "/"+ref))
	_, err = os.Stat(file)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, ref), "deleting twice is not an error")
}

func TestFS_PutRejectsUnsupportedType(t *testing.T) {
	store, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), ulid.Make(), "image/gif", strings.NewReader("gif"))
	assert.ErrorIs(t, err, blob.ErrUnsupportedType)

	assert.True(t, blob.Supported("IMAGE/JPEG"))
	assert.False(t, blob.Supported("text/plain"))
}

func TestFS_DeleteRejectsEscapes(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))
	t.Cleanup(func() { _ = os.Remove(outside) })

	store, err := blob.NewFS(root)
	require.NoError(t, err)

	owner := ulid.Make().String()
	for _, ref := range []string{
		"images/../../keep.txt",
		"images/" + owner + "/../../../keep.txt",
		"../keep.txt",
		"images/",
		"images/file.png",
		"images/nested/file.png",
		"images/" + owner + "/",
		"images/" + owner + "/deeper/file.png",
		"other/" + owner + "/file.png",
		"",
	} {
		t.Run(ref, func(t *testing.T) {
			assert.ErrorIs(t, store.Delete(context.Background(), ref), blob.ErrInvalidRef)
		})
	}

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestFS_Handler(t *testing.T) {
	store, err := blob.NewFS(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Put(context.Background(), ulid.Make(), "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)

	srv := httptest.NewServer(store.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/" + ref)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))
}

func TestOwner(t *testing.T) {
	ada := ulid.Make()
	bob := ulid.Make()
	ref := "images/" + ada.String() + "/0f8e1a2b-3c4d-4e5f-8a9b-0c1d2e3f4a5b.png"

	got, ok := blob.Owner(ref)
	require.True(t, ok)
	assert.Equal(t, ada, got)

	assert.True(t, blob.OwnedBy(ref, ada))
	assert.True(t, blob.OwnedBy("/"+ref, ada))
	assert.False(t, blob.OwnedBy(ref, bob))

	for _, bad := range []string{"", "images/a.png", "images/not-a-ulid/a.png", "https://example.com/a.png"} {
		_, ok := blob.Owner(bad)
		assert.False(t, ok, bad)
		assert.False(t, blob.OwnedBy(bad, ada), bad)
	}
}
