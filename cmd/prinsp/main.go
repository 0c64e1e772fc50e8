// prinsp captures the screen and reads text from it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/prinsp/internal/cli"
	apperr "github.com/GriffinCanCode/prinsp/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperr.UserMessage(err))
		stop()
		os.Exit(1)
	}
}
