package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stampgrid/internal/cli"
	sgerrors "github.com/matzehuels/stampgrid/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		code := exitCode(err)
		if code != 130 {
			cli.PrintError(os.Stderr, sgerrors.UserMessage(err))
		}
		os.Exit(code)
	}
}

// exitCode maps err to the process status: 130 on interrupt, 2 when a
// simulation aborted on its catalog or PSF, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return 130 // SIGINT
	case sgerrors.Fatal(err):
		return 2
	}
	return 1
}

func run(ctx context.Context) error {
	var verbose, quiet bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")

	setContext := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		switch {
		case verbose:
			c.SetLogLevel(cli.LogDebug)
		case quiet:
			c.SetLogLevel(cli.LogWarn)
		}
		if setContext != nil {
			setContext(cmd, args)
		}
	}

	return root.ExecuteContext(ctx)
}
