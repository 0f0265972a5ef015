// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaCommand_Stdout(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--env-file", "", "schema"})

	require.NoError(t, cmd.Execute())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok, "schema has no properties")
	assert.Contains(t, props, "http_addr")
	assert.Contains(t, props, "cors_origins")
}

func TestSchemaCommand_File(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schemas", "config.schema.json")
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--env-file", "", "schema", "--out", out})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
	assert.Contains(t, buf.String(), "Generated "+out)
}
