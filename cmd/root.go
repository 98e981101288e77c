package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/litt/internal/app"
	"github.com/Tiliavir/litt/internal/config"
	"github.com/Tiliavir/litt/internal/failure"
	"github.com/Tiliavir/litt/internal/hooks"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	dir          string
	outputFormat string
	verbose      bool
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "tt",
		Short: "litt – track time on projects, tasks and other items from the CLI",
		Long: `tt keeps a single running stopwatch, at most one interruption inside it,
and a ledger of committed records, all in one JSON document under ~/.litt/.
Without a subcommand it prints the running stopwatch and interruption.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, o)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&o.outputFormat, "output-format", "", "Output format: human, json, json-compact or yaml (default from config)")
	flags.StringVar(&o.dir, "dir", "", "Data directory (default $"+config.EnvDir+" or ~/.litt)")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return failure.Wrap(failure.InvalidArgument, err, "invalid arguments")
	})

	cmd.AddCommand(
		newConfigCmd(o),
		newAliasCmd(o),
		newStartCmd(o),
		newStopCmd(o),
		newToggleCmd(o),
		newCancelCmd(o),
		newInterruptCmd(o),
		newResumeCmd(o),
		newTrackCmd(o),
		newAmendCmd(o),
		newListCmd(o),
		newServeCmd(o),
		newSyncCmd(o),
	)
	return cmd
}

// Execute is the entry point called from main.
func Execute() {
	os.Exit(run(rootCmd, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes cmd with args and returns the process exit code. A dry run
// exits with its own code without a diagnostic.
func run(cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return 0
	}
	if !failure.IsKind(err, failure.DryRun) {
		fmt.Fprintln(stderr, err)
		var hookErr *hooks.Error
		if errors.As(err, &hookErr) && hookErr.Stdout != "" {
			fmt.Fprint(stderr, hookErr.Stdout)
		}
	}
	return failure.ExitCode(err)
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// open resolves the data directory and discovers its hooks.
func (o *rootOptions) open(cmd *cobra.Command) (*app.App, error) {
	dir, err := config.ResolveDir(o.dir)
	if err != nil {
		return nil, err
	}
	return app.Open(config.NewPaths(dir), o.logger(cmd))
}

func (o *rootOptions) output(cmd *cobra.Command) app.Output {
	return app.Output{W: cmd.OutOrStdout(), Format: o.outputFormat}
}

// usageArgs classifies positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return failure.Wrap(failure.InvalidArgument, err, "invalid arguments")
		}
		return nil
	}
}
