// Command wmctl inspects world model snapshots and configuration.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/hupe1980/worldmodel/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
