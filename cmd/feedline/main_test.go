// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedline/feedline/pkg/errutil"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"serve", "migrate", "schema"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/config.yaml", "--help"},
			wantFlag: "/path/to/config.yaml",
		},
		{
			name:     "with equals",
			args:     []string{"--config=/etc/feedline.yaml", "--help"},
			wantFlag: "/etc/feedline.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile = ""

			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestRootCommand_VersionFlag(t *testing.T) {
	cmd := NewRootCmd()
	cmd.Version = "test-version"
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "test-version")
}

func TestFormatVersion(t *testing.T) {
	got := formatVersion("1.2.3", "abc123", "2026-01-02")
	assert.Equal(t, "1.2.3 (commit: abc123, built: 2026-01-02)", got)
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("missing default file is ignored", func(t *testing.T) {
		err := loadEnvFile(filepath.Join(t.TempDir(), ".env"), false)
		assert.NoError(t, err)
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		err := loadEnvFile(filepath.Join(t.TempDir(), "prod.env"), true)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "ENV_FILE_INVALID")
	})

	t.Run("empty path is a no-op", func(t *testing.T) {
		assert.NoError(t, loadEnvFile("", true))
	})

	t.Run("sets variables without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "FEEDLINE_TEST_FRESH=from-file\nFEEDLINE_TEST_SET=from-file\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("FEEDLINE_TEST_SET", "from-env")
		t.Setenv("FEEDLINE_TEST_FRESH", "")
		require.NoError(t, os.Unsetenv("FEEDLINE_TEST_FRESH"))

		require.NoError(t, loadEnvFile(path, true))

		assert.Equal(t, "from-file", os.Getenv("FEEDLINE_TEST_FRESH"))
		assert.Equal(t, "from-env", os.Getenv("FEEDLINE_TEST_SET"))
	})
}
