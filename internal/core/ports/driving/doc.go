// Package driving provides interfaces exposed to external actors
// (primary/inbound ports): the HTTP API, CLI, TUI and MCP adapters.
package driving
