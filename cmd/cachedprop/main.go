package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/teranos/cachedprop/cmd/cachedprop/commands"
	"github.com/teranos/cachedprop/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx)
	stop()
	logger.Cleanup()
	os.Exit(code)
}
