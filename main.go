package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/heshanpadmasiri/cy2pw/cmd"
	"github.com/heshanpadmasiri/cy2pw/diagnostics"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.NewRootCmd()
	root.Version = Version
	err := root.ExecuteContext(ctx)
	stop()
	diagnostics.Fatal("cy2pw failed", err)
}
