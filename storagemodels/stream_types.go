/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// StreamResult represents a single row in a stream with metadata
type StreamResult struct {
	Row   Row        // The streamed row
	Error error      // Terminal error; the channel closes after it
	Meta  StreamMeta // Metadata about this row
}

// StreamMeta contains metadata about a streamed row
type StreamMeta struct {
	Index     int64     // Row index in stream (0-based)
	Page      int       // Backend page number (1-based)
	Timestamp time.Time // When the row was retrieved
}

// StreamOptions configures streaming behavior
type StreamOptions struct {
	BufferSize      int                  // Channel buffer size (default: 100)
	PageSize        int                  // Rows fetched per backend page (default: 100)
	ProgressHandler func(StreamProgress) // Optional progress callback
}

// StreamProgress tracks streaming progress
type StreamProgress struct {
	RowsSent    int64     // Total rows delivered
	Pages       int       // Total pages fetched
	StartTime   time.Time // When streaming started
	CurrentRate float64   // Rows per second
	Done        bool      // Set on the final report
}

// StreamOption is a functional option for configuring streaming
type StreamOption func(*StreamOptions)

// DefaultStreamOptions returns default streaming options
func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		BufferSize: 100,
		PageSize:   100,
	}
}

// ApplyStreamOptions returns the defaults overridden by opts.
func ApplyStreamOptions(opts ...StreamOption) StreamOptions {
	options := DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.BufferSize < 0 {
		options.BufferSize = 0
	}
	if options.PageSize <= 0 {
		options.PageSize = DefaultStreamOptions().PageSize
	}
	return options
}

// WithBufferSize sets the channel buffer size
func WithBufferSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.BufferSize = size
	}
}

// WithPageSize sets the backend page size
func WithPageSize(size int) StreamOption {
	return func(opts *StreamOptions) {
		opts.PageSize = size
	}
}

// WithProgressHandler sets a progress callback
func WithProgressHandler(handler func(StreamProgress)) StreamOption {
	return func(opts *StreamOptions) {
		opts.ProgressHandler = handler
	}
}

// ProgressTracker accumulates stream progress and reports it to the configured handler.
type ProgressTracker struct {
	handler func(StreamProgress)
	start   time.Time
	rows    int64
	pages   int
}

// NewProgressTracker starts tracking; a nil handler makes every call a no-op.
func NewProgressTracker(handler func(StreamProgress)) *ProgressTracker {
	return &ProgressTracker{handler: handler, start: time.Now()}
}

// Row records one delivered row and returns its index.
func (p *ProgressTracker) Row() int64 {
	idx := p.rows
	p.rows++
	return idx
}

// Sent returns the number of rows delivered so far.
func (p *ProgressTracker) Sent() int64 {
	return p.rows
}

// Page records one fetched page and returns its 1-based number.
func (p *ProgressTracker) Page() int {
	p.pages++
	return p.pages
}

// Pages returns the number of pages fetched so far.
func (p *ProgressTracker) Pages() int {
	return p.pages
}

// Report invokes the handler with the current totals.
func (p *ProgressTracker) Report(done bool) {
	if p.handler == nil {
		return
	}
	progress := StreamProgress{
		RowsSent:  p.rows,
		Pages:     p.pages,
		StartTime: p.start,
		Done:      done,
	}
	if elapsed := time.Since(p.start).Seconds(); elapsed > 0 {
		progress.CurrentRate = float64(p.rows) / elapsed
	}
	p.handler(progress)
}
