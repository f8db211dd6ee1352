package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchSemantic bool
	searchTopK     int
	searchCase     bool
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Searches the in-memory index. By default matches the query as a
substring of chunk text; with --semantic, ranks chunks by embedding
similarity instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchSemantic, "semantic", false, "rank by embedding similarity")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 5, "maximum semantic results")
	searchCmd.Flags().BoolVar(&searchCase, "case-sensitive", false, "match keyword case exactly")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if services == nil {
		return errors.New("services not configured")
	}

	if !searchSemantic {
		results := services.Index.KeywordSearch(query, searchCase)
		if searchJSON {
			return printJSON(cmd, results)
		}
		if len(results) == 0 {
			cmd.Println("No results found.")
			return nil
		}
		for i, r := range results {
			cmd.Printf("  [%d] %s\n", i+1, r.Citation)
			cmd.Printf("      %s\n\n", r.Snippet)
		}
		return nil
	}

	results, err := services.Index.SemanticSearch(cmd.Context(), query, searchTopK)
	if err != nil {
		return fmt.Errorf("semantic search failed: %w", err)
	}
	if searchJSON {
		return printJSON(cmd, results)
	}
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, r := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, r.Citation, r.Similarity)
		cmd.Printf("      %s\n\n", r.Snippet)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
