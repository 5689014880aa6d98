// Package cli wires the cobra command tree to the orthomosaic pipeline.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/S3OPS/autoflight/internal/config"
	"github.com/S3OPS/autoflight/internal/logging"
	"github.com/S3OPS/autoflight/internal/pipeline"
	"github.com/S3OPS/autoflight/internal/stitch"
	"github.com/S3OPS/autoflight/internal/storage"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Root wires CLI commands to the pipeline.
type Root struct {
	cfg        *config.Config
	log        *slog.Logger
	store      *storage.Store
	engine     stitch.Engine
	controller *pipeline.Controller
}

// NewRootCmd creates the root cobra command.
func NewRootCmd(cfg *config.Config, store *storage.Store, engine stitch.Engine, log *slog.Logger) *cobra.Command {
	root := &Root{
		cfg:        cfg,
		log:        log,
		store:      store,
		engine:     engine,
		controller: pipeline.New(engine, store, log),
	}

	var verbose, quiet bool

	rootCmd := &cobra.Command{
		Use:   "autoflight",
		Short: "Autoflight turns overlapping photographs into one orthomosaic",
		Long: `Autoflight composes a directory of overlapping aerial photographs into a
single orthomosaic image, writing it as JPEG, PNG, TIFF, or a self-contained
HTML document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet {
				cfg.Logging.Level = "error"
			} else if verbose {
				cfg.Logging.Level = "debug"
			}
			root.log = logging.Setup(cfg)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.AddCommand(newStitchCmd(root))
	rootCmd.AddCommand(newServeCmd(root))
	rootCmd.AddCommand(newWatchCmd(root))
	rootCmd.AddCommand(newConfigCmd(root))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the command tree and returns a process exit code. Errors are
// printed to stderr, per the pipeline's CLI contract.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the autoflight version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("autoflight %s\n", Version)
		},
	}
}
