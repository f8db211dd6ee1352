package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage the document library",
}

var docsListJSON bool

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents in the library",
	RunE:  runDocsList,
}

var docsRemoveCmd = &cobra.Command{
	Use:   "rm [filename]",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsRemove,
}

func init() {
	docsListCmd.Flags().BoolVar(&docsListJSON, "json", false, "output as JSON")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsRemoveCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	infos, err := services.Library.ListDocuments(cmd.Context())
	if err != nil {
		return err
	}

	if docsListJSON {
		return printJSON(cmd, infos)
	}

	if len(infos) == 0 {
		cmd.Println("No documents found.")
		return nil
	}
	for _, info := range infos {
		cmd.Printf("  %-40s %8d bytes  %3d chunks\n", info.Filename, info.FileSize, info.ChunksCount)
	}
	return nil
}

func runDocsRemove(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}
	filename := args[0]

	removed := services.Index.RemoveDocument(filename)
	if err := services.Library.DeleteDocument(filename); err != nil {
		return err
	}

	cmd.Printf("Deleted %s (%d chunks removed)\n", filename, removed)
	return nil
}
