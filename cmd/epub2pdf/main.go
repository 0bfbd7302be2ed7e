package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"epub2pdf/internal/converter"
	"epub2pdf/internal/pdf"
)

const (
	defaultPageSize = "A4"
	defaultMargins  = 20
	defaultFontSize = 12
)

var pageSizes = []string{"A4", "Letter", "A5", "Legal"}

// cliOptions holds everything parsed from the command line.
type cliOptions struct {
	Inputs    []string
	Output    string
	OutputDir string
	Batch     bool
	Base      converter.Options
	Logger    *zap.Logger
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2pdf EPUB_FILE...",
		Short: "Convert EPUB files to PDF format",
		Long: `epub2pdf converts EPUB ebooks into paginated PDF documents with
consistent typography, running headers, and a generated table of
contents. Layout is delegated to the weasyprint engine, which must be
installed separately.`,
		Version:       "1.0",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	cmd.Flags().StringP("output", "o", "", "Output PDF file path (single file conversion only)")
	cmd.Flags().String("output-dir", "", "Output directory for batch conversion")
	cmd.Flags().String("page-size", defaultPageSize, fmt.Sprintf("Page size, one of %s", strings.Join(pageSizes, ", ")))
	cmd.Flags().Int("margins", defaultMargins, "Page margins in millimeters")
	cmd.Flags().Int("font-size", defaultFontSize, "Base font size in points")
	cmd.Flags().Bool("no-toc", false, "Disable table of contents generation")
	cmd.Flags().Bool("preserve-temp", false, "Keep the staging directory next to the output artifact")
	cmd.Flags().BoolP("verbose", "v", false, "Enable verbose output")

	return cmd
}

// readCLIOptions validates flags and assembles the conversion options.
func readCLIOptions(cmd *cobra.Command, args []string) (cliOptions, error) {
	output, _ := cmd.Flags().GetString("output")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	pageSize, _ := cmd.Flags().GetString("page-size")
	margins, _ := cmd.Flags().GetInt("margins")
	fontSize, _ := cmd.Flags().GetInt("font-size")
	noTOC, _ := cmd.Flags().GetBool("no-toc")
	preserveTemp, _ := cmd.Flags().GetBool("preserve-temp")
	verbose, _ := cmd.Flags().GetBool("verbose")

	opts := cliOptions{
		Inputs:    args,
		Output:    output,
		OutputDir: outputDir,
		Batch:     len(args) > 1 || outputDir != "",
	}

	if !validPageSize(pageSize) {
		return opts, fmt.Errorf("--page-size must be one of %s, got %q", strings.Join(pageSizes, ", "), pageSize)
	}
	if margins < 0 {
		return opts, fmt.Errorf("--margins must not be negative, got %d", margins)
	}
	if fontSize <= 0 {
		return opts, fmt.Errorf("--font-size must be positive, got %d", fontSize)
	}
	if output != "" && opts.Batch {
		return opts, fmt.Errorf("--output is only valid for single file conversion; use --output-dir for batches")
	}

	opts.Base = converter.Options{
		PageSize:     pageSize,
		MarginsMM:    margins,
		FontSizePT:   fontSize,
		IncludeTOC:   !noTOC,
		PreserveTemp: preserveTemp,
	}
	opts.Logger = buildLogger(verbose)

	return opts, nil
}

// buildLogger configures the console logger: debug level when verbose,
// info otherwise.
func buildLogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func validPageSize(pageSize string) bool {
	for _, s := range pageSizes {
		if strings.EqualFold(s, pageSize) {
			return true
		}
	}
	return false
}

func run(cmd *cobra.Command, args []string) error {
	opts, err := readCLIOptions(cmd, args)
	if err != nil {
		return err
	}
	defer opts.Logger.Sync()

	engine := &pdf.WeasyPrint{}
	ctx := context.Background()

	if opts.Batch {
		res, errs := converter.ConvertBatch(ctx, opts.Inputs, opts.OutputDir, opts.Base, engine, opts.Logger)
		fmt.Fprintf(cmd.OutOrStdout(), "Batch conversion complete: %d succeeded, %d failed\n",
			res.Succeeded, res.Failed)
		if errs != nil {
			opts.Logger.Debug("batch diagnostics", zap.Error(errs))
		}
		// Batch mode reports counts and always exits 0
		return nil
	}

	input := opts.Inputs[0]
	single := opts.Base
	single.InputPath = input
	single.OutputPath = opts.Output
	if single.OutputPath == "" {
		single.OutputPath = converter.OutputPathFor(input, "")
	}

	if err := converter.NewPipeline(single, engine, opts.Logger).Convert(ctx); err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Conversion successful: %s\n", single.OutputPath)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
