// Command skill is the CLI entry point sharing identical semantics with the
// MCP server's four operations: run (-> execute), find (-> search_skills),
// plus config (writes the per-instance config the executor consumes) and
// serve (exposes the same operations over MCP).
package main

import "os"

func main() {
	os.Exit(Execute())
}
