// Package export writes assembled tables to columnar files.
package export

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// WriteParquet writes the table to a zstd-compressed parquet file at path.
func WriteParquet(record arrow.Record, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating parquet file: %w", err)
	}
	defer f.Close()

	table := array.NewTableFromRecords(record.Schema(), []arrow.Record{record})
	defer table.Release()

	chunkSize := record.NumRows()
	if chunkSize == 0 {
		chunkSize = 1
	}

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Zstd))
	if err := pqarrow.WriteTable(table, f, chunkSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("writing parquet file: %w", err)
	}
	return nil
}
