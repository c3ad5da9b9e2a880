package cmd

import (
	"context"
	"fmt"
	"io"

	"bootstrap/internal/command"
	"bootstrap/internal/config"
	"bootstrap/internal/download"
	"bootstrap/internal/extract"
	"bootstrap/internal/gitfix"
	"bootstrap/internal/log"
)

func newReporter(cfg *config.Config, w io.Writer) log.Reporter {
	return log.NewLoggerWithOutput(cfg, w)
}

// executeCommand runs exactly one subcommand.
func executeCommand(ctx context.Context, cfg *config.Config, reporter log.Reporter, c command.Command) error {
	switch c := c.(type) {
	case command.Download:
		_, err := download.NewDownloader(cfg, reporter).Download(ctx, c.URL, c.Target)
		return err
	case command.Unzip:
		_, err := extract.NewExtractor(cfg, reporter).Extract(ctx, c.Archive, c.Target)
		return err
	case command.GitFix:
		_, err := gitfix.NewFixer(cfg, reporter).FixFile(ctx, c.Root)
		return err
	default:
		return fmt.Errorf("unhandled command %T", c)
	}
}
