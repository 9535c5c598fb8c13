package archive

import (
	"context"
	"errors"

	"github.com/archivedive/dive/internal/materialize"
	"github.com/archivedive/dive/internal/metrics"
	"github.com/archivedive/dive/internal/query"
)

// GetRange fetches all records in [start, end), driving chunk fetches
// sequentially so records stay in increasing block order. Each chunk
// re-resolves its worker. Transient failures retry the current cursor with
// exponential backoff; past the ceiling the whole acquisition fails with
// RetriesExhaustedError and no partial results.
func (c *Client) GetRange(ctx context.Context, filter Filter, start, end uint64) ([]materialize.Record, error) {
	if start >= end {
		return []materialize.Record{}, nil
	}

	var acquired []materialize.Record
	cursor := start
	attempt := 0
	backoff := c.cfg.RetryBaseDelay

	for cursor < end {
		chunk, nextBlock, err := c.fetchChunkGoverned(ctx, filter, cursor)
		if err != nil {
			if errors.Is(err, ErrUpstreamUnavailable) || ctx.Err() != nil {
				return nil, err
			}
			if attempt >= c.cfg.MaxRetries {
				return nil, &RetriesExhaustedError{FromBlock: cursor, Attempts: attempt + 1, Err: err}
			}
			attempt++
			metrics.ChunkRetries.Inc()
			c.logger.Warn().Err(err).
				Uint64("block", cursor).
				Dur("backoff", backoff).
				Int("attempt", attempt).
				Msg("Chunk fetch failed, retrying")
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff *= 2
			continue
		}

		acquired = append(acquired, chunk...)
		if c.onChunk != nil {
			c.onChunk(cursor, nextBlock, len(chunk))
		}
		cursor = nextBlock + 1
		attempt = 0
		backoff = c.cfg.RetryBaseDelay
	}

	return acquired, nil
}

// fetchChunkGoverned wraps one resolve+fetch step with the governor. The
// permit is released on every exit path, including cancellation.
func (c *Client) fetchChunkGoverned(ctx context.Context, filter Filter, cursor uint64) ([]materialize.Record, uint64, error) {
	release, err := c.governor.Enter(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer release()

	workerURL, err := c.WorkerURL(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}
	return c.FetchChunk(ctx, filter, cursor, workerURL)
}

// GetRangeAsTable acquires [start, end) and materializes the records into a
// columnar table, with dataset and fields derived from the filter document.
func (c *Client) GetRangeAsTable(ctx context.Context, filter Filter, start, end uint64) (*materialize.Result, error) {
	dataset, err := query.DetectDataset(filter)
	if err != nil {
		return nil, err
	}
	fields := query.ExtractFields(filter, dataset)

	records, err := c.GetRange(ctx, filter, start, end)
	if err != nil {
		return nil, err
	}
	return materialize.Materialize(dataset, records, fields)
}
