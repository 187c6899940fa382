// Command ragd is the multi-tenant RAG platform server. It exposes the
// tool registry over MCP (stdio or streamable HTTP) with a REST facade,
// health endpoints and Prometheus metrics.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
