// Package main is the entry point for the patchpanel CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/huangsam/patchpanel/cmd"
	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/internal/iocache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.Execute(ctx)
	stop()
	iocache.CloseCaching()
	if err != nil {
		contract.LogFatal("Error starting CLI", err)
	}
}
