package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/klauern/agentskills/internal/cli"
	"github.com/klauern/agentskills/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ui.StatusError(err.Error()))
		stop()
		os.Exit(1)
	}
}
