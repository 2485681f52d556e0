/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/suparena/rowstore/schema"
	"github.com/suparena/rowstore/storagemodels"
)

// rowsAffected is printed by commands that return no rows.
type rowsAffected struct {
	Table string `json:"table"`
	OK    bool   `json:"ok"`
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables for the configured schema",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, true, func(_ context.Context, a *app, _ []string) error {
			for _, t := range a.catalog.Tables() {
				if err := a.emit(map[string]any{"table": t.Name, "kind": t.Kind}); err != nil {
					return err
				}
			}
			return nil
		}),
	}
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add TABLE column=value...",
		Short: "Insert a row into a primary table and print its identity",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, fields, err := a.tableRow(args)
			if err != nil {
				return err
			}
			uid, err := a.port.AddRow(ctx, t.Name, fields)
			if err != nil {
				return err
			}
			return a.emit(map[string]any{"table": t.Name, t.Identity(): uid})
		}),
	}
}

func newAddRelationCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add-relation TABLE column=value...",
		Short: "Insert a row into a relation table",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, fields, err := a.tableRow(args)
			if err != nil {
				return err
			}
			if err := a.port.AddRelationRow(ctx, t.Name, fields); err != nil {
				return err
			}
			return a.emit(rowsAffected{Table: t.Name, OK: true})
		}),
	}
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update TABLE uid=N column=value...",
		Short: "Update a primary table row identified by its identity",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, fields, err := a.tableRow(args)
			if err != nil {
				return err
			}
			if err := a.port.UpdateRow(ctx, t.Name, fields); err != nil {
				return err
			}
			return a.emit(rowsAffected{Table: t.Name, OK: true})
		}),
	}
}

func newUpdateRelationCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update-relation TABLE key=value... column=value...",
		Short: "Update a relation table row identified by its key columns",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, fields, err := a.tableRow(args)
			if err != nil {
				return err
			}
			if err := a.port.UpdateRelationTableRow(ctx, t.Name, fields); err != nil {
				return err
			}
			return a.emit(rowsAffected{Table: t.Name, OK: true})
		}),
	}
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove TABLE [column=value...]",
		Short: "Delete every row matching the given columns",
		Long:  `Delete every row matching the given columns. Without conditions every row of the table is removed.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(opts, false, func(ctx context.Context, a *app, args []string) error {
			t, fields, err := a.tableRow(args)
			if err != nil {
				return err
			}
			if err := a.port.RemoveRow(ctx, t.Name, storagemodels.Predicate(fields)); err != nil {
				return err
			}
			return a.emit(rowsAffected{Table: t.Name, OK: true})
		}),
	}
}

// tableRow resolves args[0] as a table and parses the remaining assignments.
func (a *app) tableRow(args []string) (*schema.Table, storagemodels.Row, error) {
	t, err := a.catalog.Table(args[0])
	if err != nil {
		return nil, nil, err
	}
	fields, err := parseAssignments(t, args[1:])
	if err != nil {
		return nil, nil, err
	}
	return t, fields, nil
}
