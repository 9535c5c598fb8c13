package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/archivedive/dive/internal/materialize"
	"github.com/archivedive/dive/internal/metrics"
)

// FetchChunk performs one bounded request against a resolved worker: the
// filter is cloned with the cursor injected, POSTed, and the response must
// be a JSON array of per-block records. The returned nextBlock is the
// header.number of the last record; the caller continues from nextBlock+1.
// This single request is the unit of retry.
func (c *Client) FetchChunk(ctx context.Context, filter Filter, fromBlock uint64, workerURL string) ([]materialize.Record, uint64, error) {
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any(filter.withFromBlock(fromBlock))).
		Post(workerURL)
	if err != nil {
		return nil, 0, fmt.Errorf("worker request at block %d: %w", fromBlock, err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("worker at block %d returned status %d", fromBlock, resp.StatusCode())
	}

	records, nextBlock, err := decodeChunk(resp.Body())
	if err != nil {
		return nil, 0, fmt.Errorf("%w at block %d: %v", ErrMalformedResponse, fromBlock, err)
	}

	metrics.ChunksFetched.Inc()
	metrics.RecordsFetched.Add(float64(len(records)))
	metrics.LastFetchedBlock.Set(float64(nextBlock))
	metrics.ChunkFetchDuration.Observe(time.Since(start).Seconds())
	return records, nextBlock, nil
}

// decodeChunk parses a worker response body. Numbers decode as json.Number
// so block numbers keep full 64-bit fidelity.
func decodeChunk(body []byte) ([]materialize.Record, uint64, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, 0, fmt.Errorf("body did not parse as JSON: %v", err)
	}

	elements, ok := payload.([]any)
	if !ok {
		return nil, 0, fmt.Errorf("expected a JSON array, got %T", payload)
	}
	if len(elements) == 0 {
		return nil, 0, fmt.Errorf("worker returned an empty chunk")
	}

	records := make([]materialize.Record, len(elements))
	for i, element := range elements {
		record, ok := element.(map[string]any)
		if !ok {
			return nil, 0, fmt.Errorf("element %d is not an object", i)
		}
		records[i] = record
	}

	nextBlock, err := headerNumber(records[len(records)-1])
	if err != nil {
		return nil, 0, err
	}
	return records, nextBlock, nil
}

func headerNumber(record materialize.Record) (uint64, error) {
	header, ok := record["header"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("record has no header object")
	}
	number, ok := header["number"].(json.Number)
	if !ok {
		return 0, fmt.Errorf("header.number missing or not a number")
	}
	value, err := strconv.ParseUint(number.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("header.number %q is not a u64", number.String())
	}
	return value, nil
}
