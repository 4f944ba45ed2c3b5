package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"threatkit/internal/app"
	"threatkit/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(ctx, os.Stdout, app.Options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand
type cli struct {
	ctx     context.Context
	out     io.Writer
	opts    app.Options
	toolkit *app.Toolkit
}

func newRootCmd(ctx context.Context, out io.Writer, opts app.Options) *cobra.Command {
	c := &cli{ctx: ctx, out: out, opts: opts}

	rootCmd := &cobra.Command{
		Use:   "threatkit",
		Short: "Threatkit - security data utilities",
		Long:  "Converts data files, audits Obsidian vaults, builds calendars, exports MITRE ATT&CK data and generates synthetic accounts",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			toolkit, err := app.NewToolkit(c.opts)
			if err != nil {
				return fmt.Errorf("error initializing threatkit: %w", err)
			}
			c.toolkit = toolkit
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			metrics := logging.GetMetrics()
			metrics.Finish()
			metrics.LogSummary()
		},
		SilenceUsage: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().BoolVar(&c.opts.Debug, "debug", false, "Enable debug logging (verbose output)")
	rootCmd.PersistentFlags().BoolVar(&c.opts.PlainLogs, "plain-logs", false, "Log plain text lines instead of JSON")
	rootCmd.PersistentFlags().StringVar(&c.opts.ConfigPath, "config", "", "Path to a YAML config overriding the built-in defaults")

	rootCmd.AddCommand(newConvertCmd(c))
	rootCmd.AddCommand(newVaultCmd(c))
	rootCmd.AddCommand(newCalendarCmd(c))
	rootCmd.AddCommand(newMitreCmd(c))
	rootCmd.AddCommand(newAccountsCmd(c))

	return rootCmd
}

// save writes data through the toolkit store and reports the location
func (c *cli) save(dest string, data []byte) error {
	loc, err := c.toolkit.Store().Save(c.ctx, dest, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "✓ Saved %s\n", loc)
	return nil
}
