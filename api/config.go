// Package api provides an HTTP API server for inspecting reconciled spans and
// threads and for driving breakpoints.
package api

import (
	"net/http"

	"github.com/papercomputeco/spool/pkg/ingest"
)

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8086")
	ListenAddr string

	// Publisher receives events posted to /v1/channels/:name/events.
	// HTTP ingress is disabled when nil.
	Publisher ingest.Publisher

	// MCP is mounted at /mcp when set.
	MCP http.Handler
}
