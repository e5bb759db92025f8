package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	rootcmd "github.com/greenroom-sh/greenroom/cmd/greenroom/root"
	"github.com/greenroom-sh/greenroom/internal/kv"
	"github.com/greenroom-sh/greenroom/internal/models"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootcmd.New().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	return 0
}

// exitCode maps error classes onto distinct exit statuses so scripts can
// branch on the failure kind without parsing stderr.
func exitCode(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return 2
	case errors.Is(err, kv.ErrUnreachable),
		errors.Is(err, kv.ErrAuthRejected),
		errors.Is(err, kv.ErrUnavailable):
		return 3
	case errors.Is(err, models.ErrMalformedDocument):
		return 4
	case errors.Is(err, models.ErrAlreadyExists):
		return 5
	}
	return 1
}
