// Package server provides the MCP server implementation for the SemRank service.
package server

// RankToolServer defines the interface for the MCP server that handles
// indexing and ranking tool calls from MCP clients.
type RankToolServer interface {
	// Initialize initializes the server with dependencies and configurations.
	Initialize() error

	// Start starts the MCP server on the specified transport.
	Start() error

	// Stop gracefully shuts down the MCP server.
	Stop() error
}
