/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package rowstore

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/suparena/rowstore/config"
	"github.com/suparena/rowstore/datastore"
	"github.com/suparena/rowstore/datastore/instrumented"
	"github.com/suparena/rowstore/logging"
	"github.com/suparena/rowstore/registry"
	"github.com/suparena/rowstore/schema"

	// Backends register themselves with the registry.
	_ "github.com/suparena/rowstore/datastore/ddb"
	_ "github.com/suparena/rowstore/datastore/memory"
	_ "github.com/suparena/rowstore/datastore/pg"
	_ "github.com/suparena/rowstore/datastore/sqlstore"
)

type openOptions struct {
	migrate        bool
	tracerProvider trace.TracerProvider
	logger         *zerolog.Logger
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithMigrate controls whether missing tables are created on open.
func WithMigrate(migrate bool) OpenOption {
	return func(o *openOptions) {
		o.migrate = migrate
	}
}

// WithTracerProvider sets the tracer provider used for operation spans.
func WithTracerProvider(tp trace.TracerProvider) OpenOption {
	return func(o *openOptions) {
		o.tracerProvider = tp
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger zerolog.Logger) OpenOption {
	return func(o *openOptions) {
		o.logger = &logger
	}
}

// Open creates the backend named by cfg.Type, wraps it with tracing, metrics
// and logging, and creates missing tables unless disabled with WithMigrate.
func Open(ctx context.Context, cfg config.StoreConfig, catalog *schema.Catalog, opts ...OpenOption) (datastore.StoragePort, error) {
	o := openOptions{migrate: true}
	for _, opt := range opts {
		opt(&o)
	}
	if catalog == nil {
		return nil, fmt.Errorf("schema catalog is required")
	}

	factory, err := registry.GetBackend(cfg.Type)
	if err != nil {
		return nil, err
	}
	port, err := factory(ctx, cfg, catalog)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Type, err)
	}

	var wrapOpts []instrumented.Option
	if o.tracerProvider != nil {
		wrapOpts = append(wrapOpts, instrumented.WithTracerProvider(o.tracerProvider))
	}
	if o.logger != nil {
		wrapOpts = append(wrapOpts, instrumented.WithLogger(*o.logger))
	}
	store := instrumented.Wrap(port, cfg.Type, wrapOpts...)

	if o.migrate {
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("creating %s tables: %w", cfg.Type, err)
		}
	}

	logging.FromContext(ctx).Info().
		Str("backend", cfg.Type).
		Int("tables", len(catalog.Tables())).
		Msg("store opened")
	return store, nil
}

// OpenAll loads the schema file named by cfg and opens every configured store
// into a new Manager. Stores opened before a failure are closed again.
func OpenAll(ctx context.Context, cfg *config.Config, opts ...OpenOption) (*Manager, *schema.Catalog, error) {
	if cfg.Schema.File == "" {
		return nil, nil, fmt.Errorf("schema.file is required")
	}
	catalog, err := schema.Load(cfg.Schema.File)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]OpenOption{WithMigrate(cfg.Schema.MigrateOnStart)}, opts...)
	m := NewManager()
	for _, name := range cfg.StoreNames() {
		storeCtx := logging.WithStore(ctx, name)
		port, err := Open(storeCtx, cfg.Stores[name], catalog, opts...)
		if err != nil {
			_ = m.Close()
			return nil, nil, fmt.Errorf("store %q: %w", name, err)
		}
		if err := m.Register(name, port); err != nil {
			_ = port.Close()
			_ = m.Close()
			return nil, nil, err
		}
	}
	return m, catalog, nil
}
