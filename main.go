package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/xcodebuild/fastkill/internal/app"
	"github.com/xcodebuild/fastkill/internal/config"
	"github.com/xcodebuild/fastkill/internal/killer"
	"github.com/xcodebuild/fastkill/internal/platform"
	"github.com/xcodebuild/fastkill/internal/process"
	"github.com/xcodebuild/fastkill/internal/ui"
)

var version = "dev"

type exitError struct {
	code    int
	message string
}

func (e *exitError) Error() string { return e.message }

func main() {
	log.SetPrefix("fastkill")
	log.SetReportTimestamp(false)
	log.SetLevel(log.InfoLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the root command and returns the process exit code. Failures
// are written to stderr regardless of the log level.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if ctx.Err() != nil {
		return 130
	}

	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintf(stderr, "fastkill: %s\n", ee.message)
		return ee.code
	}
	fmt.Fprintf(stderr, "fastkill: %v\n", err)
	return 1
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fastkill",
		Short:   "Pick a running process, see the TCP ports it listens on, and kill it",
		Version: version,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.Register(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command) error {
	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return &exitError{code: 2, message: fmt.Sprintf("invalid configuration: %v", err)}
	}

	if cfg.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.Quiet {
		log.SetLevel(log.FatalLevel)
	}

	a := &app.App{
		System:   process.NewSystem(),
		Resolver: platform.New(platform.Options{Lister: cfg.Lister}),
		Picker:   ui.NewPicker(),
		Killer:   killer.New(),
		Out:      cmd.OutOrStdout(),
		Options: app.Options{
			ListeningOnly: cfg.ListeningOnly,
			Port:          cfg.Port,
			List:          cfg.List,
			JSON:          cfg.JSON,
		},
	}

	ctx := cmd.Context()
	err = a.Run(ctx)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, app.ErrTryAgain):
		log.Debug("run failed", "err", err)
		return &exitError{code: 1, message: "There was an error, please try again"}
	default:
		return &exitError{code: 1, message: err.Error()}
	}
}
