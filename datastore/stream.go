/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"time"

	"github.com/suparena/rowstore/storagemodels"
)

// PageFunc fetches up to limit rows of an ordered result starting at offset.
type PageFunc func(ctx context.Context, offset, limit int) ([]storagemodels.Row, error)

// StreamPages delivers the rows selected by q page by page over a channel.
// The query's own offset and limit bound the pages that are fetched.
func StreamPages(ctx context.Context, q *storagemodels.QuerySpec, fetch PageFunc, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult {
	options := storagemodels.ApplyStreamOptions(opts...)
	resultCh := make(chan storagemodels.StreamResult, options.BufferSize)

	go streamWorker(ctx, q, fetch, options, resultCh)

	return resultCh
}

// StreamError returns a closed channel carrying a single error result.
func StreamError(err error) <-chan storagemodels.StreamResult {
	resultCh := make(chan storagemodels.StreamResult, 1)
	resultCh <- storagemodels.StreamResult{Error: err, Meta: storagemodels.StreamMeta{Timestamp: time.Now()}}
	close(resultCh)
	return resultCh
}

func streamWorker(
	ctx context.Context,
	q *storagemodels.QuerySpec,
	fetch PageFunc,
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult,
) {
	defer close(resultCh)

	tracker := storagemodels.NewProgressTracker(options.ProgressHandler)
	offset := q.Offset
	remaining := q.Limit

	for {
		if ctx.Err() != nil {
			return
		}

		size := options.PageSize
		if q.Limit > 0 && remaining < size {
			size = remaining
		}

		rows, err := fetch(ctx, offset, size)
		if err != nil {
			select {
			case <-ctx.Done():
			case resultCh <- storagemodels.StreamResult{
				Error: err,
				Meta: storagemodels.StreamMeta{
					Index:     tracker.Sent(),
					Page:      tracker.Pages(),
					Timestamp: time.Now(),
				},
			}:
			}
			tracker.Report(true)
			return
		}
		page := tracker.Page()

		for _, row := range rows {
			result := storagemodels.StreamResult{
				Row: row,
				Meta: storagemodels.StreamMeta{
					Index:     tracker.Row(),
					Page:      page,
					Timestamp: time.Now(),
				},
			}
			select {
			case <-ctx.Done():
				return
			case resultCh <- result:
			}
		}

		offset += len(rows)
		if q.Limit > 0 {
			remaining -= len(rows)
		}
		if len(rows) < size || (q.Limit > 0 && remaining <= 0) {
			break
		}
		tracker.Report(false)
	}

	tracker.Report(true)
}
