// Command osrview renders a web page off-screen and saves what it drew.
//
// Usage:
//
//	osrview run https://example.com --frames 30 --out page.png
//	osrview source https://example.com
//
// Settings come from osr.yaml (or --config), OSR_* environment variables
// and flags, in increasing priority.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, "osrview:", err)
		stop()
		os.Exit(1)
	}
}
