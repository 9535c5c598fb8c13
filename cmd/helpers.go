package cmd

import (
	"time"

	config "github.com/archivedive/dive/configs"
	"github.com/archivedive/dive/internal/archive"
)

// newArchiveClient builds a client from the loaded config, with the
// governor attached only when limits are configured.
func newArchiveClient(opts ...archive.ClientOption) *archive.Client {
	cfg := archive.Config{
		BaseURL:        config.Cfg.Archive.BaseURL,
		RequestTimeout: time.Duration(config.Cfg.Archive.RequestTimeoutMs) * time.Millisecond,
		MaxRetries:     config.Cfg.Archive.MaxRetries,
		RetryBaseDelay: time.Duration(config.Cfg.Archive.RetryBaseDelayMs) * time.Millisecond,
	}

	if config.Cfg.Archive.MaxConcurrentRequests > 0 || config.Cfg.Archive.RequestsPerSecond > 0 {
		governor := archive.NewGovernor(
			int64(config.Cfg.Archive.MaxConcurrentRequests),
			config.Cfg.Archive.RequestsPerSecond,
		)
		opts = append(opts, archive.WithGovernor(governor))
	}

	return archive.NewClient(cfg, opts...)
}
