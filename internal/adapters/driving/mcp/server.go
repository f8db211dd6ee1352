package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/refchat/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// healthCheckTimeout bounds the chat readiness probe at startup.
const healthCheckTimeout = 5 * time.Second

// Server exposes the document index, chat and library over MCP.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer builds an MCP server around the given ports. The advertised
// instructions and tool set follow what is actually configured: ask is only
// registered when a chat port is present, document resources only with a
// library port.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "refchat",
		Version: Version,
	}
	opts := &mcp.ServerOptions{
		Instructions: instructions(ports),
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, opts),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells connecting clients which capabilities this instance
// carries, so they do not plan around tools that were never registered.
func instructions(ports *Ports) string {
	var b strings.Builder
	b.WriteString("refchat answers questions about a local document library. ")
	b.WriteString("Use keyword_search to find exact text fragments and semantic_search to find passages by meaning.")
	if ports.Chat != nil {
		b.WriteString(" Use ask to get a full answer with source citations.")
	} else {
		b.WriteString(" No language model is configured, so the ask tool is not available; compose answers from search results instead.")
	}
	if ports.Library != nil {
		b.WriteString(" Full document contents are exposed as refchat://documents/{filename} resources.")
	}
	return b.String()
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	s.reportReadiness(ctx)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP starts the MCP server over HTTP on the specified address.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	s.reportReadiness(ctx)

	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background()) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// reportReadiness logs the index size and probes the chat model once at
// startup, so an unreachable model surfaces before the first ask call.
func (s *Server) reportReadiness(ctx context.Context) {
	stats := s.ports.Index.Stats()
	logger.Info("MCP server ready: %d documents, %d chunks indexed", stats.DocumentsCount, stats.ChunksCount)

	if s.ports.Chat == nil {
		return
	}
	probeCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if !s.ports.Chat.Healthy(probeCtx) {
		logger.Warn("Chat model is not reachable; ask calls will fail until it is")
	}
}
