// Package main is the refchat entry point. It loads configuration, wires
// the driven adapters to the core services, and hands control to the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	ollamaembed "github.com/custodia-labs/refchat/internal/adapters/driven/embedding/ollama"
	ollamallm "github.com/custodia-labs/refchat/internal/adapters/driven/llm/ollama"
	"github.com/custodia-labs/refchat/internal/adapters/driving/api"
	"github.com/custodia-labs/refchat/internal/adapters/driving/cli"
	"github.com/custodia-labs/refchat/internal/chunker"
	"github.com/custodia-labs/refchat/internal/config"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/services"
	"github.com/custodia-labs/refchat/internal/docsource/filesystem"
	"github.com/custodia-labs/refchat/internal/extract/pdf"
	"github.com/custodia-labs/refchat/internal/extract/plaintext"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	splitter := chunker.New(chunker.WithMaxWords(cfg.Index.ChunkSizeWords))
	extractors := []driven.Extractor{plaintext.New(), pdf.New()}

	source := filesystem.New(cfg.Docs.Folder, splitter, extractors,
		filesystem.WithMaxUploadBytes(cfg.MaxUploadBytes()),
	)

	embedder := ollamaembed.New(ollamaembed.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.EmbedModel,
		Timeout: cfg.OllamaTimeout(),
	})

	generator := ollamallm.New(ollamallm.Config{
		BaseURL: cfg.Ollama.URL,
		Model:   cfg.Ollama.ChatModel,
		Timeout: cfg.OllamaTimeout(),
	})
	defer generator.Close()

	index := services.NewIndexer(source, embedder,
		services.WithPreviewLength(cfg.Index.PreviewLength),
		services.WithTopK(cfg.Index.DefaultTopK, cfg.Index.MaxTopK),
	)
	chat := services.NewChat(index, generator)
	library := services.NewLibrary(source, source)

	cli.SetVersion(version)
	cli.SetServices(&cli.Services{
		Index:   index,
		Chat:    chat,
		Library: library,
		Source:  source,
		Config:  cfg,
		Ollama: api.OllamaInfo{
			URL:        cfg.Ollama.URL,
			EmbedModel: cfg.Ollama.EmbedModel,
			ChatModel:  cfg.Ollama.ChatModel,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx)
}

// configPath returns the configuration file location. A missing file is
// fine; defaults apply.
func configPath() string {
	if p := os.Getenv("REFCHAT_CONFIG"); p != "" {
		return p
	}
	return "refchat.toml"
}
