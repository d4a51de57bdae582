// Package main runs buddy-mcp, an MCP tool server that exposes GitHub
// repository files and pull requests, Supabase tables and Vercel
// deployments to MCP clients over HTTP or stdio.
package main

import (
	"fmt"
	"os"

	"buddy-mcp/cmd"
)

func main() {
	cmd.SetVersionInfo(Version, Commit, Date)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
