/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/suparena/rowstore"
	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/observability"
	"github.com/suparena/rowstore/schema"
)

// app holds what one command invocation needs: the loaded configuration, the
// schema catalog and the opened port.
type app struct {
	cfg     *config.Config
	catalog *schema.Catalog
	port    datastore.StoragePort
	logger  zerolog.Logger
	enc     *json.Encoder
	stop    context.CancelFunc
}

func openApp(ctx context.Context, opts *rootOptions, migrate bool) (*app, context.Context, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, ctx, err
	}
	storeCfg, ok := cfg.Store(opts.storeName)
	if !ok {
		return nil, ctx, fmt.Errorf("store %q is not configured (have %v)", opts.storeName, cfg.StoreNames())
	}
	if cfg.Schema.File == "" {
		return nil, ctx, fmt.Errorf("schema.file is not configured")
	}
	catalog, err := schema.Load(cfg.Schema.File)
	if err != nil {
		return nil, ctx, err
	}

	logger := logging.New(logging.FromSettings(cfg.Logging))
	ctx = logging.WithContext(ctx, logger)
	ctx = logging.WithStore(ctx, opts.storeName)
	ctx, stop := context.WithCancel(ctx)

	if cfg.Metrics.Enabled {
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Listen); err != nil {
				logger.Warn().Err(err).Str("listen", cfg.Metrics.Listen).Msg("metrics endpoint stopped")
			}
		}()
	}

	port, err := rowstore.Open(ctx, storeCfg, catalog,
		rowstore.WithMigrate(migrate || cfg.Schema.MigrateOnStart),
		rowstore.WithLogger(logger),
	)
	if err != nil {
		stop()
		return nil, ctx, err
	}

	return &app{
		cfg:     cfg,
		catalog: catalog,
		port:    port,
		logger:  logger,
		enc:     json.NewEncoder(opts.out),
		stop:    stop,
	}, ctx, nil
}

func (a *app) Close() error {
	defer a.stop()
	return a.port.Close()
}

func (a *app) emit(v any) error {
	return a.enc.Encode(v)
}

// withApp opens the configured store, runs fn and closes the store again.
func withApp(opts *rootOptions, migrate bool, fn func(ctx context.Context, a *app, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, ctx, err := openApp(cmd.Context(), opts, migrate)
		if err != nil {
			return err
		}
		runErr := fn(ctx, a, args)
		if err := a.Close(); err != nil && runErr == nil {
			runErr = err
		}
		return runErr
	}
}
