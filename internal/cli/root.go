// Package cli is the jsonviewer command line: the API server plus one-shot
// commands over the same persisted session.
package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/longkidkoolstar/jsonviewer/internal/app"
	"github.com/longkidkoolstar/jsonviewer/internal/config"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
	"github.com/longkidkoolstar/jsonviewer/internal/utils"
)

// OpenFunc builds the runtime a command works on. logLevel overrides the
// configured level when not empty.
type OpenFunc func(ctx context.Context, logLevel string) (*app.Runtime, error)

// Options wires the command tree to its environment.
type Options struct {
	In   io.Reader
	Out  io.Writer
	Err  io.Writer
	Open OpenFunc
}

type cli struct {
	in       *bufio.Reader
	out      io.Writer
	open     OpenFunc
	logLevel string
}

// OpenFromEnv loads the configuration from the environment.
func OpenFromEnv(ctx context.Context, logLevel string) (*app.Runtime, error) {
	cfg := config.Load()
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return app.Open(ctx, cfg, logger.New(level, cfg.PrettyLog))
}

// NewRootCommand builds the command tree. Nil fields of opts fall back to the
// process stdio and OpenFromEnv.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Open == nil {
		opts.Open = OpenFromEnv
	}

	c := &cli{in: bufio.NewReader(opts.In), out: opts.Out, open: opts.Open}

	root := &cobra.Command{
		Use:   "jsonviewer",
		Short: "View, version and push remote JSON documents",
		Long: `jsonviewer fetches a JSON document from a remote endpoint, keeps every
distinct version it has seen, and pushes edits back.

Saved storages name the endpoints you use most. Run "jsonviewer serve" for the
HTTP API, or use the one-shot commands below against the same state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error); one-shot commands default to warn")

	root.AddCommand(
		c.serveCommand(),
		c.fetchCommand(),
		c.showCommand(),
		c.pushCommand(),
		c.keyCommand(),
		c.storagesCommand(),
		c.versionsCommand(),
		versionCommand(),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string, opts Options) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		errOut := opts.Err
		if errOut == nil {
			errOut = os.Stderr
		}
		_, _ = io.WriteString(errOut, "error: "+err.Error()+"\n")
		return 1
	}
	return 0
}

// withRuntime opens the runtime for a one-shot command and closes it after.
func (c *cli) withRuntime(fn func(ctx context.Context, rt *app.Runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		level := c.logLevel
		if level == "" {
			level = "warn"
		}
		rt, err := c.open(cmd.Context(), level)
		if err != nil {
			return err
		}
		defer utils.MustClose(rt, rt.Logger, "store")
		return fn(cmd.Context(), rt, args)
	}
}
