// Command pajesim replays Paje-style trace events through the
// simulator core, optionally serving live notifications over
// WebSocket and exposing Prometheus metrics.
package main

import (
	"fmt"
	"os"

	"fleetd.sh/cmd/pajesim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
