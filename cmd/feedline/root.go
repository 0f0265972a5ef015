// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var (
	configFile string
	envFile    string
)

const defaultEnvFile = ".env"

// NewRootCmd creates the root command for the Feedline CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "feedline",
		Short:        "Feedline - a multi-user content feed",
		SilenceUsage: true,
		Long: `Feedline is a multi-user content feed: accounts sign up and log in,
publish titled posts with optional images, and watch changes live over
Server-Sent Events.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "dotenv file loaded before reading the environment")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadEnvFile loads path into the environment without overriding variables
// that are already set. A missing file is only an error when it was asked
// for explicitly.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return oops.Code("ENV_FILE_INVALID").With("path", path).Wrap(err)
}
