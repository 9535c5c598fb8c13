package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	heightCmd = &cobra.Command{
		Use:   "height",
		Short: "Print the archive's current max indexed block",
		Run: func(cmd *cobra.Command, args []string) {
			client := newArchiveClient()
			height, err := client.Height(context.Background())
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to get archive height")
			}
			fmt.Println(height)
		},
	}
)
