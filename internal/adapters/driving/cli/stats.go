package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	stats := services.Index.Stats()
	if statsJSON {
		return printJSON(cmd, stats)
	}

	cmd.Printf("Documents:           %d\n", stats.DocumentsCount)
	cmd.Printf("Chunks:              %d\n", stats.ChunksCount)
	cmd.Printf("Embedding dimension: %d\n", stats.EmbeddingDimension)
	return nil
}
