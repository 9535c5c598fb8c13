package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	config "github.com/archivedive/dive/configs"
	"github.com/archivedive/dive/internal/archive"
	"github.com/archivedive/dive/internal/export"
)

var (
	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a block range and materialize it into a table",
		Long:  "Fetches all records matching the query in [from, until), materializes the selected fields into a columnar table and optionally writes it to a parquet file",
		Run:   RunFetch,
	}
)

func init() {
	fetchCmd.Flags().Uint64("from", 0, "First block of the range, inclusive")
	fetchCmd.Flags().Uint64("until", 0, "End of the range, exclusive")
	fetchCmd.Flags().String("query", "", "Path to the JSON filter document")
	fetchCmd.Flags().String("output", "", "Parquet file to write the table to")
	viper.BindPFlag("fetch.fromBlock", fetchCmd.Flags().Lookup("from"))
	viper.BindPFlag("fetch.untilBlock", fetchCmd.Flags().Lookup("until"))
	viper.BindPFlag("fetch.query", fetchCmd.Flags().Lookup("query"))
	viper.BindPFlag("fetch.output", fetchCmd.Flags().Lookup("output"))
}

func RunFetch(cmd *cobra.Command, args []string) {
	from := config.Cfg.Fetch.FromBlock
	until := config.Cfg.Fetch.UntilBlock
	if until <= from {
		log.Fatal().Msgf("Invalid range: until block %d must be greater than from block %d", until, from)
	}

	filter, err := loadFilter(config.Cfg.Fetch.Query)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load query document")
	}

	bar := progressbar.NewOptions64(
		int64(until-from),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Fetching blocks..."),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	)

	client := newArchiveClient(archive.WithChunkCallback(func(fromBlock, nextBlock uint64, records int) {
		covered := int64(nextBlock + 1 - fromBlock)
		if err := bar.Add64(covered); err != nil {
			log.Warn().Err(err).Msg("Failed to update progress bar")
		}
	}))

	result, err := client.GetRangeAsTable(context.Background(), filter, from, until)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch block range")
	}
	defer result.Release()

	log.Info().
		Int("rows", result.Rows).
		Int64("columns", result.Record.NumCols()).
		Int("skipped_values", result.SkippedValues).
		Msg("Materialized table")

	if output := config.Cfg.Fetch.Output; output != "" {
		if err := export.WriteParquet(result.Record, output); err != nil {
			log.Fatal().Err(err).Msg("Failed to write parquet file")
		}
		log.Info().Str("path", output).Msg("Wrote parquet file")
	} else {
		fmt.Printf("%d rows x %d columns\n", result.Rows, result.Record.NumCols())
	}
}

func loadFilter(path string) (archive.Filter, error) {
	if path == "" {
		return nil, fmt.Errorf("no query document given, use --query")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query document: %w", err)
	}
	var filter archive.Filter
	if err := json.Unmarshal(data, &filter); err != nil {
		return nil, fmt.Errorf("parsing query document: %w", err)
	}
	return filter, nil
}
