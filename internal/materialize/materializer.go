package materialize

import (
	"errors"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	customLog "github.com/archivedive/dive/internal/log"
	"github.com/archivedive/dive/internal/metrics"
)

// Record is one per-block JSON document returned by an archive worker. For
// the blocks dataset the row values live in the "header" object; for the
// other datasets in a nested ordered list keyed by the dataset name.
type Record = map[string]any

// ErrSchemaAssembly is returned when the extracted columns end up with
// mismatched lengths and cannot form a table.
var ErrSchemaAssembly = errors.New("column length mismatch during table assembly")

// Result is the assembled table plus materialization counters. The caller
// owns the record and must Release it.
type Result struct {
	Record arrow.Record
	// Rows is the number of rows in the assembled table.
	Rows int
	// SkippedValues counts values that were present but of the wrong JSON
	// type and were dropped instead of aborting the materialization.
	SkippedValues int
}

func (r *Result) Release() {
	if r.Record != nil {
		r.Record.Release()
	}
}

// Materialize walks the fetched records and extracts the requested fields
// into typed columns, assembled in the caller's field order. Field names
// outside the dataset's vocabulary are dropped silently. A value of the
// wrong JSON type is skipped and counted, never fatal.
func Materialize(dataset Dataset, records []Record, fields []string) (*Result, error) {
	start := time.Now()
	logger := customLog.NewLogger("materializer")

	type boundColumn struct {
		name    string
		builder columnBuilder
	}

	mem := memory.DefaultAllocator
	columns := make([]boundColumn, 0, len(fields))
	byName := make(map[string]columnBuilder, len(fields))
	for _, name := range fields {
		kind, ok := fieldKind(dataset, name)
		if !ok {
			logger.Debug().Str("field", name).Str("dataset", dataset.String()).Msg("Field not in dataset vocabulary, dropping")
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		b := newColumnBuilder(mem, kind)
		columns = append(columns, boundColumn{name: name, builder: b})
		byName[name] = b
	}
	defer func() {
		for _, col := range columns {
			col.builder.release()
		}
	}()

	skipped := 0
	appendRow := func(row map[string]any) {
		for _, col := range columns {
			value, ok := row[col.name]
			if !ok {
				continue
			}
			if err := col.builder.append(value); err != nil {
				skipped++
				logger.Warn().Err(err).Str("field", col.name).Msg("Skipping value with unexpected type")
			}
		}
	}

	for _, record := range records {
		if listKey, nested := dataset.listKey(); nested {
			list, ok := record[listKey].([]any)
			if !ok {
				continue
			}
			for _, element := range list {
				row, ok := element.(map[string]any)
				if !ok {
					skipped++
					logger.Warn().Str("dataset", dataset.String()).Msg("Skipping non-object list element")
					continue
				}
				appendRow(row)
			}
		} else {
			header, ok := record["header"].(map[string]any)
			if !ok {
				continue
			}
			appendRow(header)
		}
	}

	arrowFields := make([]arrow.Field, len(columns))
	arrays := make([]arrow.Array, len(columns))
	numRows := 0
	for i, col := range columns {
		if i > 0 && col.builder.len() != numRows {
			for _, a := range arrays[:i] {
				a.Release()
			}
			return nil, fmt.Errorf("%w: column %q has %d values, expected %d",
				ErrSchemaAssembly, col.name, col.builder.len(), numRows)
		}
		numRows = col.builder.len()
		kind, _ := fieldKind(dataset, col.name)
		arrowFields[i] = arrow.Field{Name: col.name, Type: kind.arrowType(), Nullable: true}
		arrays[i] = col.builder.finish()
	}

	schema := arrow.NewSchema(arrowFields, nil)
	table := array.NewRecord(schema, arrays, int64(numRows))
	for _, a := range arrays {
		a.Release()
	}

	metrics.RowsMaterialized.Add(float64(numRows))
	metrics.ValuesSkipped.Add(float64(skipped))
	metrics.MaterializeDuration.Observe(time.Since(start).Seconds())

	return &Result{Record: table, Rows: numRows, SkippedValues: skipped}, nil
}
