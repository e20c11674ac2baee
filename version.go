// Package boundsgate holds build metadata shared by the CLI and the MCP server.
package boundsgate

// Version is the boundsgate release version.
var Version = "v0.3.0"
