// Command rowmodel compiles CUE table models and synchronizes databases
// with them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/rowmodel/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		// Commands print their own errors; cobra prints flag errors.
		os.Exit(cli.GetExitCode(err))
	}
}
