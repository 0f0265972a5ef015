// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/feedline/feedline/internal/config"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the config file",
		Long: `Print the JSON Schema that config files are validated against.
Editors with YAML language server support can use it for completion.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, outPath)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the schema to a file instead of stdout")
	return cmd
}

func runSchema(cmd *cobra.Command, outPath string) error {
	schema, err := config.GenerateSchema()
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err := cmd.OutOrStdout().Write(append(schema, '\n'))
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", outPath).Wrap(err)
	}
	if err := os.WriteFile(outPath, schema, 0o600); err != nil {
		return oops.Code("SCHEMA_WRITE_FAILED").With("path", outPath).Wrap(err)
	}
	cmd.Printf("Generated %s\n", outPath)
	return nil
}
