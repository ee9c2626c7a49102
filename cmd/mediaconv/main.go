// Package main is the entry point for the mediaconv CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/maauso/mediaconv/internal/bootstrap"
	"github.com/maauso/mediaconv/internal/config"
	"github.com/maauso/mediaconv/internal/convert"
)

// version is set at build time via ldflags.
var version = "dev"

// app carries state shared by the subcommands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	outputDir string
	jsonOut   bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mediaconv",
		Short: "Convert images, audio, video and documents between formats",
		Long: `mediaconv converts local media files between the formats its registry
allows, enhances images, turns PDFs into DOCX and downloads audio or video
from media hosting URLs.

Run "mediaconv actions" to list every action with its accepted inputs and
allowed outputs. The HTTP interface is served by the separate server binary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.NewLoggerTo(cmd.ErrOrStderr())
			if a.outputDir == "" {
				a.outputDir = cfg.OutputDir()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.outputDir, "output-dir", "o", "", "directory for produced files (default: $WORK_DIR/outputs)")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newConvertCmd(a),
		newDownloadCmd(a),
		newActionsCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) dispatcher() *convert.Dispatcher {
	return bootstrap.NewDispatcher(a.cfg, a.outputDir, a.logger)
}

// resultJSON is the --json rendering of a conversion result.
type resultJSON struct {
	OK      bool             `json:"ok"`
	Output  *convert.Output  `json:"output,omitempty"`
	Failure *convert.Failure `json:"failure,omitempty"`
}

// report prints res and returns its failure, so a failed conversion exits
// non-zero.
func (a *app) report(cmd *cobra.Command, res convert.Result) error {
	if a.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(resultJSON{OK: res.OK(), Output: res.Output, Failure: res.Failure}); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		return res.Err()
	}

	if err := res.Err(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Output.Path)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
