// Package cli implements the refchat command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/refchat/internal/adapters/driving/api"
	"github.com/custodia-labs/refchat/internal/config"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/docsource/filesystem"
	"github.com/custodia-labs/refchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services holds the wired application services the commands act on.
type Services struct {
	Index   driving.IndexService
	Chat    driving.ChatService
	Library driving.LibraryService
	Source  *filesystem.Source
	Config  *config.Config
	Ollama  api.OllamaInfo
}

var services *Services

// SetServices injects the wired services. Must be called before Execute.
func SetServices(s *Services) {
	services = s
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "refchat",
	Short: "Local document question answering",
	Long: `refchat indexes your local PDF and text documents and answers
questions about them using a local language model via Ollama.

Documents live in a plain folder; the index is built in memory at startup
and kept current as files change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verboseFlag || (services != nil && services.Config != nil && services.Config.Verbose) {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
