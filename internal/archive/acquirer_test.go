package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testArchive wires a directory server to a worker server whose behavior is
// driven per request by handle(fromBlock, requestIndex).
type testArchive struct {
	directory *httptest.Server
	worker    *httptest.Server

	lookups        atomic.Int32
	workerRequests atomic.Int32
}

func newTestArchive(t *testing.T, handle func(w http.ResponseWriter, fromBlock uint64, requestIndex int32)) *testArchive {
	t.Helper()
	ta := &testArchive{}

	ta.worker = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var body map[string]any
		require.NoError(t, dec.Decode(&body))
		number, ok := body["fromBlock"].(json.Number)
		require.True(t, ok, "request body missing fromBlock")
		fromBlock, err := strconv.ParseUint(number.String(), 10, 64)
		require.NoError(t, err)
		handle(w, fromBlock, ta.workerRequests.Add(1)-1)
	}))

	ta.directory = newDirectory("0", func(w http.ResponseWriter, r *http.Request) {
		ta.lookups.Add(1)
		fmt.Fprint(w, ta.worker.URL)
	})

	t.Cleanup(func() {
		ta.directory.Close()
		ta.worker.Close()
	})
	return ta
}

// noSleep replaces backoff sleeping with a recorder so retry tests run fast.
func noSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func headerNumbersOf(t *testing.T, records []map[string]any) []uint64 {
	t.Helper()
	numbers := make([]uint64, len(records))
	for i, record := range records {
		n, err := headerNumber(record)
		require.NoError(t, err)
		numbers[i] = n
	}
	return numbers
}

func TestGetRangeEmptyWhenStartNotBeforeEnd(t *testing.T) {
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, _ int32) {
		t.Fatal("no worker request expected")
	})

	client := NewClient(Config{BaseURL: ta.directory.URL})

	records, err := client.GetRange(context.Background(), Filter{}, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = client.GetRange(context.Background(), Filter{}, 11, 10)
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.Equal(t, int32(0), ta.lookups.Load())
}

func TestGetRangeAcrossChunks(t *testing.T) {
	// each chunk covers at most five blocks, so [0, 10) takes two requests
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, _ int32) {
		to := fromBlock + 4
		if to > 9 {
			to = 9
		}
		fmt.Fprint(w, chunkBody(fromBlock, to))
	})

	client := NewClient(Config{BaseURL: ta.directory.URL})

	records, err := client.GetRange(context.Background(), Filter{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, records, 10)

	numbers := headerNumbersOf(t, records)
	for i := 1; i < len(numbers); i++ {
		assert.LessOrEqual(t, numbers[i-1], numbers[i])
	}
	assert.Equal(t, uint64(0), numbers[0])
	assert.Equal(t, uint64(9), numbers[len(numbers)-1])

	// the worker is re-resolved for every chunk
	assert.Equal(t, int32(2), ta.lookups.Load())
	assert.Equal(t, int32(2), ta.workerRequests.Load())
}

func TestGetRangeChunkCallback(t *testing.T) {
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, _ int32) {
		fmt.Fprint(w, chunkBody(fromBlock, fromBlock+2))
	})

	type observed struct {
		fromBlock, nextBlock uint64
		records              int
	}
	var calls []observed
	client := NewClient(Config{BaseURL: ta.directory.URL},
		WithChunkCallback(func(fromBlock, nextBlock uint64, records int) {
			calls = append(calls, observed{fromBlock, nextBlock, records})
		}))

	_, err := client.GetRange(context.Background(), Filter{}, 0, 6)
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, observed{0, 2, 3}, calls[0])
	assert.Equal(t, observed{3, 5, 3}, calls[1])
}

func TestGetRangeRetriesCurrentCursor(t *testing.T) {
	// the first two attempts fail, the third succeeds; every attempt targets
	// the same cursor
	var attempts []uint64
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, requestIndex int32) {
		attempts = append(attempts, fromBlock)
		if requestIndex < 2 {
			http.Error(w, "busy", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, chunkBody(fromBlock, 4))
	})

	client := NewClient(Config{BaseURL: ta.directory.URL})
	var delays []time.Duration
	client.sleep = noSleep(&delays)

	records, err := client.GetRange(context.Background(), Filter{}, 0, 5)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	assert.Equal(t, []uint64{0, 0, 0}, attempts)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
}

func TestGetRangeMalformedChunkRetried(t *testing.T) {
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, requestIndex int32) {
		if requestIndex == 0 {
			fmt.Fprint(w, `{"not": "an array"}`)
			return
		}
		fmt.Fprint(w, chunkBody(fromBlock, 2))
	})

	client := NewClient(Config{BaseURL: ta.directory.URL})
	var delays []time.Duration
	client.sleep = noSleep(&delays)

	records, err := client.GetRange(context.Background(), Filter{}, 0, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Len(t, delays, 1)
}

func TestGetRangeRetriesExhausted(t *testing.T) {
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, _ int32) {
		http.Error(w, "busy", http.StatusInternalServerError)
	})

	client := NewClient(Config{BaseURL: ta.directory.URL, MaxRetries: 3})
	var delays []time.Duration
	client.sleep = noSleep(&delays)

	records, err := client.GetRange(context.Background(), Filter{}, 7, 20)
	require.Error(t, err)
	assert.Nil(t, records)

	var exhausted *RetriesExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, uint64(7), exhausted.FromBlock)
	assert.Equal(t, 4, exhausted.Attempts)

	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, delays)
}

func TestGetRangeDirectoryOutageNotRetried(t *testing.T) {
	var lookups atomic.Int32
	dir := newDirectory("0", func(w http.ResponseWriter, r *http.Request) {
		lookups.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	defer dir.Close()

	client := NewClient(Config{BaseURL: dir.URL})
	var delays []time.Duration
	client.sleep = noSleep(&delays)

	_, err := client.GetRange(context.Background(), Filter{}, 0, 10)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, int32(1), lookups.Load())
	assert.Empty(t, delays)
}

func TestGetRangeHonorsGovernor(t *testing.T) {
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, _ int32) {
		fmt.Fprint(w, chunkBody(fromBlock, fromBlock))
	})

	client := NewClient(Config{BaseURL: ta.directory.URL}, WithGovernor(NewGovernor(1, 0)))

	records, err := client.GetRange(context.Background(), Filter{}, 0, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestGetRangeAsTable(t *testing.T) {
	ta := newTestArchive(t, func(w http.ResponseWriter, fromBlock uint64, _ int32) {
		fmt.Fprintf(w, `[
			{"header": {"number": %d}, "logs": [
				{"logIndex": 0, "address": "0xaaa"},
				{"logIndex": 1, "address": "0xbbb"}
			]},
			{"header": {"number": %d}, "logs": [
				{"logIndex": 0, "address": "0xccc"}
			]}
		]`, fromBlock, fromBlock+1)
	})

	client := NewClient(Config{BaseURL: ta.directory.URL})
	filter := Filter{
		"logs":   []any{map[string]any{"address": []any{"0xaaa"}}},
		"fields": map[string]any{"log": map[string]any{"address": true, "logIndex": true}},
	}

	result, err := client.GetRangeAsTable(context.Background(), filter, 0, 2)
	require.NoError(t, err)
	defer result.Release()

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, int64(2), result.Record.NumCols())
	assert.Equal(t, "address", result.Record.ColumnName(0))
	assert.Equal(t, "logIndex", result.Record.ColumnName(1))
}
