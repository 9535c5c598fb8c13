package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkBody builds a worker response covering blocks [from, to].
func chunkBody(from, to uint64) string {
	var sb strings.Builder
	sb.WriteString("[")
	for n := from; n <= to; n++ {
		if n > from {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"header": {"number": %d, "hash": "0x%x"}}`, n, n)
	}
	sb.WriteString("]")
	return sb.String()
}

func TestFetchChunkInjectsCursor(t *testing.T) {
	var requested map[string]any
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		require.NoError(t, dec.Decode(&requested))
		fmt.Fprint(w, chunkBody(5, 9))
	}))
	defer worker.Close()

	client := NewClient(Config{BaseURL: "http://unused"})
	filter := Filter{"logs": []any{map[string]any{"address": []any{"0xaaa"}}}}

	records, nextBlock, err := client.FetchChunk(context.Background(), filter, 5, worker.URL)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, uint64(9), nextBlock)

	assert.Equal(t, json.Number("5"), requested["fromBlock"])
	assert.Contains(t, requested, "logs")

	// the caller's filter document stays untouched
	assert.NotContains(t, filter, "fromBlock")
}

func TestFetchChunkNonArrayBody(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error": "nope"}`)
	}))
	defer worker.Close()

	client := NewClient(Config{BaseURL: "http://unused"})
	_, _, err := client.FetchChunk(context.Background(), Filter{}, 0, worker.URL)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchChunkEmptyArray(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer worker.Close()

	client := NewClient(Config{BaseURL: "http://unused"})
	_, _, err := client.FetchChunk(context.Background(), Filter{}, 0, worker.URL)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchChunkMissingHeaderNumber(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"header": {"hash": "0x1"}}]`)
	}))
	defer worker.Close()

	client := NewClient(Config{BaseURL: "http://unused"})
	_, _, err := client.FetchChunk(context.Background(), Filter{}, 0, worker.URL)
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchChunkWorkerStatusError(t *testing.T) {
	worker := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusInternalServerError)
	}))
	defer worker.Close()

	client := NewClient(Config{BaseURL: "http://unused"})
	_, _, err := client.FetchChunk(context.Background(), Filter{}, 0, worker.URL)
	require.Error(t, err)
	// a worker failure is transient, not a directory outage
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)
}
