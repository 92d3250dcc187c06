// Package main is the entry point for the meshadvisor CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/Faultbox/meshadvisor/internal/cli"
)

func main() {
	// Interrupt stops a scan between assets
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
