/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suparena/rowstore/storagemodels"
)

type queryFlags struct {
	where  []string
	order  []string
	limit  int
	offset int
}

func newQueryCommand(opts *rootOptions) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "query TABLE",
		Short: "Print matching rows, one JSON object per line",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, err := a.catalog.Table(args[0])
			if err != nil {
				return err
			}
			q, err := buildQuery(t, f.where, f.order, f.limit, f.offset)
			if err != nil {
				return err
			}
			for res := range a.port.StreamObjectDataByQuery(ctx, q) {
				if res.Error != nil {
					return res.Error
				}
				if err := a.emit(res.Row); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	cmd.Flags().StringArrayVar(&f.where, "where", nil, "column=value condition, repeatable")
	cmd.Flags().StringArrayVar(&f.order, "order", nil, "column[:desc] ordering, repeatable")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum rows to print (0 for all)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "rows to skip")
	return cmd
}

func newCountCommand(opts *rootOptions) *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "count TABLE",
		Short: "Print the number of matching rows",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, err := a.catalog.Table(args[0])
			if err != nil {
				return err
			}
			q, err := buildQuery(t, where, nil, 0, 0)
			if err != nil {
				return err
			}
			n, err := a.port.GetObjectCountByQuery(ctx, q)
			if err != nil {
				return err
			}
			return a.emit(map[string]any{"table": t.Name, "count": n})
		}),
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value condition, repeatable")
	return cmd
}

func newMaxCommand(opts *rootOptions) *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "max TABLE COLUMN",
		Short: "Print the largest non-null value of a column",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, err := a.catalog.Table(args[0])
			if err != nil {
				return err
			}
			filter, err := parseAssignments(t, where)
			if err != nil {
				return err
			}
			v, found, err := a.port.GetMaxValueFromTable(ctx, t.Name, storagemodels.Predicate(filter), args[1])
			if err != nil {
				return err
			}
			return a.emit(map[string]any{"table": t.Name, "column": args[1], "max": v, "found": found})
		}),
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "column=value condition, repeatable")
	return cmd
}
