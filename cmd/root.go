package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	configs "github.com/archivedive/dive/configs"
	customLogger "github.com/archivedive/dive/internal/log"
)

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "dive",
		Short: "Fetch historical chain data from a block-range sharded archive",
		Long:  "dive resolves archive workers per block range, pages through chunks and materializes the records into a columnar table",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yml)")
	rootCmd.PersistentFlags().String("archive-base-url", "", "Archive directory base URL")
	rootCmd.PersistentFlags().Int("archive-max-concurrent-requests", 0, "Max chunk fetches in flight, 0 means unlimited")
	rootCmd.PersistentFlags().Float64("archive-requests-per-second", 0, "Request rate ceiling against the archive, 0 means unthrottled")
	rootCmd.PersistentFlags().Int("archive-request-timeout-ms", 0, "HTTP request timeout in milliseconds")
	rootCmd.PersistentFlags().Int("archive-max-retries", 0, "Retry ceiling per chunk position")
	rootCmd.PersistentFlags().Int("archive-retry-base-delay-ms", 0, "First backoff delay in milliseconds, doubles per attempt")
	rootCmd.PersistentFlags().String("log-level", "", "Log level to use for the application")
	rootCmd.PersistentFlags().Bool("log-prettify", false, "Whether to prettify the log output")
	viper.BindPFlag("archive.baseUrl", rootCmd.PersistentFlags().Lookup("archive-base-url"))
	viper.BindPFlag("archive.maxConcurrentRequests", rootCmd.PersistentFlags().Lookup("archive-max-concurrent-requests"))
	viper.BindPFlag("archive.requestsPerSecond", rootCmd.PersistentFlags().Lookup("archive-requests-per-second"))
	viper.BindPFlag("archive.requestTimeoutMs", rootCmd.PersistentFlags().Lookup("archive-request-timeout-ms"))
	viper.BindPFlag("archive.maxRetries", rootCmd.PersistentFlags().Lookup("archive-max-retries"))
	viper.BindPFlag("archive.retryBaseDelayMs", rootCmd.PersistentFlags().Lookup("archive-retry-base-delay-ms"))
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.prettify", rootCmd.PersistentFlags().Lookup("log-prettify"))
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(heightCmd)
}

func initConfig() {
	configs.LoadConfig(cfgFile)
	customLogger.InitLogger()
}
