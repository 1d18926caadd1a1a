// droidmcp is an MCP server that exposes Android device control over stdio:
// shell commands, package inspection, screenshots, UI hierarchy dumps, file
// transfer, and input injection, all through a local adb server.
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
