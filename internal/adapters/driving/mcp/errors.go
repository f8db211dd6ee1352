// Package mcp provides an MCP (Model Context Protocol) server adapter for
// refchat. It lets AI assistants search the document index and ask grounded
// questions over the local library.
package mcp

import "errors"

// ErrMissingIndexService is returned when the index service is not provided.
var ErrMissingIndexService = errors.New("mcp: index service is required")
