package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/S3OPS/autoflight/internal/loader"
	"github.com/S3OPS/autoflight/internal/output"
	"github.com/S3OPS/autoflight/internal/pipeline"
	"github.com/S3OPS/autoflight/internal/progress"
	"github.com/S3OPS/autoflight/internal/security"
	"github.com/S3OPS/autoflight/internal/stitch"
	"github.com/S3OPS/autoflight/internal/watch"
)

// stitchFlags collects the knobs shared by the stitch and watch commands.
type stitchFlags struct {
	mode           string
	quality        int
	pngCompression int
	workers        int
	noParallel     bool
	noCreateDirs   bool
	maxFileSize    int64
	maxPixels      int64
	maxFiles       int
	showProgress   bool
	dryRun         bool
}

func (f *stitchFlags) register(cmd *cobra.Command, root *Root) {
	cfg := root.cfg
	cmd.Flags().StringVar(&f.mode, "mode", cfg.Stitching.Mode, "stitching mode: 'panorama' or 'scans'")
	cmd.Flags().IntVar(&f.quality, "quality", cfg.Output.JPEGQuality, "JPEG quality, 1-100")
	cmd.Flags().IntVar(&f.pngCompression, "png-compression", cfg.Output.PNGCompression, "PNG compression level, 0-9")
	cmd.Flags().IntVar(&f.workers, "workers", cfg.Performance.MaxWorkers, "parallel workers for image loading")
	cmd.Flags().BoolVar(&f.noParallel, "no-parallel", !cfg.Performance.ParallelLoading, "disable parallel image loading")
	cmd.Flags().BoolVar(&f.noCreateDirs, "no-create-dirs", !cfg.Output.CreateDirs, "require output parent directories to exist")
	cmd.Flags().Int64Var(&f.maxFileSize, "max-file-size", cfg.Security.MaxFileSizeBytes, "maximum input file size in bytes")
	cmd.Flags().Int64Var(&f.maxPixels, "max-pixels", cfg.Security.MaxImagePixels, "maximum pixels per input image")
	cmd.Flags().IntVar(&f.maxFiles, "max-files", cfg.Security.MaxFileCount, "maximum number of input files")
	cmd.Flags().BoolVar(&f.showProgress, "progress", false, "show progress during processing")
}

func (f *stitchFlags) request(inputDir, outputPath string) pipeline.Request {
	return pipeline.Request{
		InputDir:   inputDir,
		OutputPath: outputPath,
		Mode:       stitch.Mode(f.mode),
		Loading: loader.Options{
			Parallel:   !f.noParallel,
			MaxWorkers: f.workers,
		},
		Output: &output.Options{
			JPEGQuality:    f.quality,
			PNGCompression: f.pngCompression,
			CreateDirs:     !f.noCreateDirs,
		},
		Limits: security.Limits{
			MaxFileSizeBytes: f.maxFileSize,
			MaxImagePixels:   f.maxPixels,
			MaxFileCount:     f.maxFiles,
		},
	}
}

func newStitchCmd(root *Root) *cobra.Command {
	var flags stitchFlags

	cmd := &cobra.Command{
		Use:   "stitch <input_dir> <output_path>",
		Short: "Create an orthomosaic from a directory of images",
		Long: `Load every supported image (jpg, jpeg, png, tif, tiff) under input_dir,
stitch them, and write the result to output_path. An .html output path
produces a self-contained document with the mosaic embedded.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.request(args[0], args[1])

			if flags.dryRun {
				count, err := root.controller.Validate(req)
				if err != nil {
					return err
				}
				fmt.Printf("Dry run: %d image(s) would be stitched from %s\n", count, args[0])
				return nil
			}

			if flags.showProgress {
				req.OnProgress = terminalProgress()
			}

			started := time.Now()
			result, err := root.controller.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if flags.showProgress {
				fmt.Println()
			}
			fmt.Printf("Wrote orthomosaic to %s using %d images (%dx%d) in %s\n",
				result.OutputPath, result.ImageCount, result.Width, result.Height,
				time.Since(started).Round(time.Millisecond))
			fmt.Printf("Run id: %s\n", result.RunID)
			return nil
		},
	}

	flags.register(cmd, root)
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate inputs without processing")
	return cmd
}

func newWatchCmd(root *Root) *cobra.Command {
	var flags stitchFlags
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <input_dir> <output_path>",
		Short: "Rebuild the orthomosaic whenever the input directory changes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := flags.request(args[0], args[1])
			if flags.showProgress {
				req.OnProgress = terminalProgress()
			}
			w := watch.New(root.controller, req, debounce, root.log)
			return w.Start(cmd.Context())
		},
	}

	flags.register(cmd, root)
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "delay after the last change before rebuilding")
	return cmd
}

// terminalProgress renders a carriage-return progress line on stderr.
func terminalProgress() progress.Func {
	return func(fraction float64, message string) {
		fmt.Fprintf(os.Stderr, "\r[%3.0f%%] %-50s", fraction*100, message)
	}
}
