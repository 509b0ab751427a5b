package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/restq/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitError
		// Commands already printed their own error output.
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
