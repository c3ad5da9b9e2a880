// Package cmd implements the bootstrap command line. Cobra parses the
// arguments; every subcommand is turned into a command.Command and handed to
// a single dispatcher.
package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"bootstrap/internal/command"
	"bootstrap/internal/config"
	"bootstrap/internal/errors"
)

// Execute runs the command line against the process arguments and exits
// with the resulting status.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := &config.Config{}
	root := newRootCmd(cfg)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	failed, err := root.ExecuteContextC(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err.Error())
		if stderrors.Is(err, errors.ErrUsage) && failed != nil {
			fmt.Fprint(stderr, failed.UsageString())
		}
		return errors.ExitCode(err)
	}
	return 0
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "bootstrap <command> [args]",
		Short: "Download files, unpack zip archives and fix submodule remotes",
		Long: `Bootstrap is a small helper for preparing a source tree. Each subcommand
performs one independent action:

  download <url> <target>   fetch a URL (http, https, ftp, file) into a file
  unzip <zip> <target>      extract a zip archive into a directory
  gitfix <root>             rewrite SSH GitHub remotes in <root>/.gitmodules to HTTPS`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return errors.NewUsageError(fmt.Sprintf("unknown command %q for %q", args[0], cmd.CommandPath()), nil)
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.Validate()
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Report every extracted entry")
	flags.BoolVar(&cfg.Debug, "debug", false, "Debug mode")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Quiet mode (errors only)")
	flags.Var((*logFormatFlag)(&cfg.LogFormat), "log-format", "Progress output format (text, json)")

	root.MarkFlagsMutuallyExclusive("verbose", "quiet")
	root.MarkFlagsMutuallyExclusive("debug", "quiet")

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.NewUsageError("invalid flags", err)
	})

	root.AddCommand(
		newDownloadCmd(cfg),
		newUnzipCmd(cfg),
		newGitFixCmd(cfg),
	)
	return root
}

func newDownloadCmd(cfg *config.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   command.NameDownload + " <url> <target>",
		Short: "Download a URL to a file",
		Long: `Download fetches <url> and writes the response body to <target>, replacing an
existing file. The body is written to a temporary file first, so a failed
transfer leaves <target> untouched. Missing parent directories are created.`,
		RunE: runCommand(cfg),
	}
	c.Flags().DurationVar(&cfg.Timeout, "timeout", 0, "Abort the transfer after this long (0 disables)")
	return c
}

func newUnzipCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   command.NameUnzip + " <zip> <target>",
		Short: "Extract a zip archive into a directory",
		Long: `Unzip extracts every entry of <zip> below <target>, creating directories as
needed. An archive containing any entry that would resolve outside <target>
is rejected before anything is written.`,
		RunE: runCommand(cfg),
	}
}

func newGitFixCmd(cfg *config.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   command.NameGitFix + " <root>",
		Short: "Rewrite SSH GitHub remotes in <root>/.gitmodules to HTTPS",
		Long: `Gitfix rewrites every git@github.com remote in <root>/.gitmodules to
https://github.com/ and reports each line as unchanged or changed. The file
is replaced atomically.`,
		RunE: runCommand(cfg),
	}
	c.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Report changes without writing")
	c.Flags().BoolVar(&cfg.Backup, "backup", false, "Keep a timestamped .bak copy of the original file")
	return c
}

func runCommand(cfg *config.Config) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := command.Parse(cmd.Name(), args)
		if err != nil {
			return err
		}
		return executeCommand(cmd.Context(), cfg, newReporter(cfg, cmd.OutOrStdout()), c)
	}
}

type logFormatFlag config.LogFormat

func (f *logFormatFlag) String() string {
	return string(*f)
}

func (f *logFormatFlag) Set(v string) error {
	switch config.LogFormat(v) {
	case config.LogFormatText, config.LogFormatJSON:
		*f = logFormatFlag(v)
		return nil
	default:
		return fmt.Errorf("must be 'text' or 'json'")
	}
}

func (f *logFormatFlag) Type() string {
	return "string"
}
