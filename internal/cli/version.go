/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/suparena/rowstore"
)

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return json.NewEncoder(opts.out).Encode(rowstore.GetVersionInfo())
		},
	}
}
