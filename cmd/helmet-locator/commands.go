package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/helmet-locator/internal/config"
	"github.com/ironsheep/helmet-locator/internal/pipeline"
	"github.com/ironsheep/helmet-locator/internal/server"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	outputDir  string
	workers    int
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "helmet-locator",
		Short: "Heuristic helmet region locator and headlight detector",
		Long: `helmet-locator finds the image region most likely to contain a motorcycle
helmet, crops it with padding and letterboxes it to a fixed square. It also
detects bright headlight blobs. Run it on files or folders, or start an MCP
server over stdio.

Settings come from built-in defaults, an optional YAML file (--config) and
HELMET_* environment variables, e.g. HELMET_LOCATOR_TOPREGIONFRACTION=0.5.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (overrides output.dir)")
	rootCmd.PersistentFlags().IntVarP(&opts.workers, "workers", "w", 0, "Concurrent images for folder runs (overrides batch.workers)")
	rootCmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug output")

	rootCmd.AddCommand(
		locateCommand(opts),
		headlightsCommand(opts),
		serveCommand(opts),
		versionCommand(),
	)

	return rootCmd
}

// loadConfig applies command-line overrides on top of the layered config.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.Dir = opts.outputDir
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = opts.workers
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = opts.debug
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func newRunner(cmd *cobra.Command, opts *options) (*pipeline.Runner, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		log.Printf("helmet-locator %s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
	return pipeline.NewRunner(cfg, log.Default())
}

func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func printReport(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func locateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "locate <image|folder>",
		Short: "Locate the helmet region and write the normalised crop",
		Long: `Runs the helmet locator and writes original.png, helmet_bbox.png or
helmet_not_found.png, gray.png, blur.png, thresh.png, the normalised crop and
report.yaml. For a folder every image gets its own subdirectory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			out := runner.Config().Output.Dir

			dir, err := isDir(args[0])
			if err != nil && !os.IsNotExist(err) {
				return err
			}
			if dir {
				rep, err := runner.HelmetBatch(cmd.Context(), args[0], out)
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), rep)
			}

			rep, err := runner.Helmet(args[0], out)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
}

func headlightsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "headlights <image|folder>",
		Short: "Detect bright blobs and their centroids",
		Long: `Blurs, thresholds at a fixed level and reports every contour centroid.
Writes <stem>_gray.png, <stem>_blur.png, <stem>_thresh.png and
<stem>_contours.png per image.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			out := runner.Config().Output.Dir

			dir, err := isDir(args[0])
			if err != nil && !os.IsNotExist(err) {
				return err
			}
			if dir {
				rep, err := runner.HeadlightBatch(cmd.Context(), args[0], out)
				if err != nil {
					return err
				}
				return printReport(cmd.OutOrStdout(), rep)
			}

			rep, err := runner.Headlight(args[0], out)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
}

func serveCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := newRunner(cmd, opts)
			if err != nil {
				return err
			}
			server.ServerVersion = Version
			srv := server.New(runner, log.Default())
			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "helmet-locator %s\n", Version)
			fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
		},
	}
}
