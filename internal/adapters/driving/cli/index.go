package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the document index",
	Long: `Clears the in-memory index and repopulates it from the documents
folder. Files that fail extraction are skipped with a warning.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	docs, chunks, err := services.Index.Rebuild(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Indexed %d documents (%d chunks)\n", docs, chunks)
	return nil
}
