/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package cli implements the rowstore command line tool.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/suparena/rowstore/config"
)

type rootOptions struct {
	configPath string
	storeName  string
	out        io.Writer
}

// NewRootCommand builds the rowstore command tree. Results are written to out
// as JSON lines.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	root := &cobra.Command{
		Use:   "rowstore",
		Short: "Inspect and modify rows in a configured store",
		Long: `rowstore opens a store from the RowStore configuration and runs one
storage operation against it.

Values are given as column=value and parsed by the column's declared type.
The literal null stores NULL. Results are printed as JSON lines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $ROWSTORE_CONFIG or ./rowstore.yaml)")
	root.PersistentFlags().StringVar(&opts.storeName, "store", config.DefaultStore, "name of the configured store")

	root.AddCommand(
		newMigrateCommand(opts),
		newAddCommand(opts),
		newAddRelationCommand(opts),
		newUpdateCommand(opts),
		newUpdateRelationCommand(opts),
		newRemoveCommand(opts),
		newQueryCommand(opts),
		newCountCommand(opts),
		newMaxCommand(opts),
		newVersionCommand(opts),
	)
	return root
}
