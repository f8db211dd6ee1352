package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the most relevant document chunks for the question and
generates an answer with the local language model, citing sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "n", 5, "number of chunks used as context")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if services == nil {
		return errors.New("services not configured")
	}

	answer, err := services.Chat.Ask(cmd.Context(), args[0], askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if len(answer.Context) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range answer.Context {
			cmd.Printf("  %s (%.3f)\n", c.Citation, c.Similarity)
		}
	}
	return nil
}
