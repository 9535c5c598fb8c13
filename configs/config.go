package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Prettify bool   `mapstructure:"prettify"`
}

type ArchiveConfig struct {
	BaseURL               string  `mapstructure:"baseUrl"`
	MaxConcurrentRequests int     `mapstructure:"maxConcurrentRequests"`
	RequestsPerSecond     float64 `mapstructure:"requestsPerSecond"`
	RequestTimeoutMs      int     `mapstructure:"requestTimeoutMs"`
	MaxRetries            int     `mapstructure:"maxRetries"`
	RetryBaseDelayMs      int     `mapstructure:"retryBaseDelayMs"`
}

type FetchConfig struct {
	FromBlock  uint64 `mapstructure:"fromBlock"`
	UntilBlock uint64 `mapstructure:"untilBlock"`
	Query      string `mapstructure:"query"`
	Output     string `mapstructure:"output"`
}

type Config struct {
	Archive ArchiveConfig `mapstructure:"archive"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Log     LogConfig     `mapstructure:"log"`
}

var Cfg Config

func LoadConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file, %s", err)
		}
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")

		// a config file is optional, flags and env vars are enough for the CLI
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("error reading config file, %s", err)
			}
		}
	}

	// sets e.g. ARCHIVE_BASEURL to archive.baseUrl
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv()

	err := viper.Unmarshal(&Cfg)
	if err != nil {
		return fmt.Errorf("error unmarshalling config: %v", err)
	}

	return nil
}
