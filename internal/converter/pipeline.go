package converter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"epub2pdf/internal/epub"
	"epub2pdf/internal/pdf"
)

// CompositeName is the fixed name of the assembled document within the
// staging root.
const CompositeName = "book.html"

// Options holds the parameters for one conversion.
type Options struct {
	InputPath    string
	OutputPath   string
	PageSize     string
	MarginsMM    int
	FontSizePT   int
	IncludeTOC   bool
	PreserveTemp bool
}

// Pipeline orchestrates one EPUB to PDF conversion: validate, read,
// stage, assemble, paginate, clean up.
type Pipeline struct {
	opts   Options
	engine pdf.Engine
	log    *zap.Logger
}

// NewPipeline creates a conversion pipeline.
func NewPipeline(opts Options, engine pdf.Engine, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{opts: opts, engine: engine, log: log}
}

// Convert runs the pipeline to completion. All fatal conditions for
// this file surface here as an error; the staging area is removed on
// every exit path unless preservation was requested.
func (p *Pipeline) Convert(ctx context.Context) error {
	// Validating: nothing is staged until the input proves to be a
	// well-formed container.
	if err := epub.Sniff(p.opts.InputPath); err != nil {
		return err
	}
	reader, err := epub.Open(p.opts.InputPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	// Reading
	opfData, err := reader.ReadFile(reader.OPFPath())
	if err != nil {
		return fmt.Errorf("failed to read OPF: %w", err)
	}
	opf, err := epub.ParseOPF(opfData, filepath.Dir(reader.OPFPath()))
	if err != nil {
		return err
	}
	p.log.Debug("metadata",
		zap.String("title", opf.Info.Title),
		zap.String("author", opf.Info.Author))

	tree, err := epub.LoadNavigation(reader, opf)
	if err != nil {
		p.log.Warn("failed to load navigation structure", zap.Error(err))
		tree = nil
	}

	// Staging
	staging, err := p.createStaging()
	if err != nil {
		return err
	}
	p.log.Debug("created staging directory", zap.String("path", staging))
	defer p.cleanupStaging(staging)

	// Assembling
	compositePath, err := p.assemble(reader, opf, tree, staging)
	if err != nil {
		return err
	}

	// Paginating
	css := GenerateCSS(p.opts.PageSize, p.opts.MarginsMM, p.opts.FontSizePT)
	p.log.Debug("rendering", zap.String("output", p.opts.OutputPath))
	if err := p.engine.Render(ctx, compositePath, css, p.opts.OutputPath); err != nil {
		return fmt.Errorf("pagination failed: %w", err)
	}

	return nil
}

// assemble extracts resources, linearizes the navigation, builds the
// composite document, and writes it into the staging root.
func (p *Pipeline) assemble(reader *epub.Reader, opf *epub.OPF, tree []epub.NavNode, staging string) (string, error) {
	images := opf.ImageItems()
	resources, staged, err := ExtractResources(reader, images, staging)
	if err != nil {
		return "", err
	}
	p.log.Debug("extracted resources", zap.Int("count", staged))

	entries := Linearize(tree)
	anchors := BuildAnchorMap(entries)

	var docs []SourceDocument
	for _, item := range opf.DocumentItems() {
		if item.Type == epub.ItemNavigation {
			continue
		}
		data, err := reader.ReadFile(item.Path)
		if err != nil {
			p.log.Warn("skipping unreadable document",
				zap.String("path", item.Path),
				zap.Error(err))
			continue
		}
		docs = append(docs, SourceDocument{Path: item.Path, Data: data})
	}

	var cover *Cover
	for _, item := range images {
		if item.Type != epub.ItemCover {
			continue
		}
		data, err := reader.ReadFile(item.Path)
		if err != nil {
			p.log.Warn("skipping unreadable cover", zap.String("path", item.Path), zap.Error(err))
			break
		}
		cover = &Cover{Path: item.Path, Data: data}
		break
	}

	asm := NewAssembler(opf.Info, entries, anchors, resources,
		AssembleOptions{IncludeTOC: p.opts.IncludeTOC}, p.log)
	composite, err := asm.Build(docs, cover)
	if err != nil {
		return "", err
	}

	compositePath := filepath.Join(staging, CompositeName)
	if err := os.WriteFile(compositePath, []byte(composite), 0o644); err != nil {
		return "", fmt.Errorf("failed to write composite document: %w", err)
	}
	return compositePath, nil
}

// createStaging creates the staging directory: a unique temp dir for
// the ephemeral case, or a fixed directory next to the output artifact
// when the caller asked for preservation.
func (p *Pipeline) createStaging() (string, error) {
	if p.opts.PreserveTemp {
		staging := PreservedStagingPath(p.opts.OutputPath)
		if err := os.MkdirAll(staging, 0o755); err != nil {
			return "", fmt.Errorf("failed to create staging directory: %w", err)
		}
		return staging, nil
	}

	staging, err := os.MkdirTemp("", "epub2pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return staging, nil
}

// cleanupStaging removes the staging directory unless preservation was
// requested. Removal failures are warnings, never conversion failures.
func (p *Pipeline) cleanupStaging(staging string) {
	if p.opts.PreserveTemp {
		p.log.Info("staging directory preserved", zap.String("path", staging))
		return
	}
	if err := os.RemoveAll(staging); err != nil {
		p.log.Warn("failed to remove staging directory",
			zap.String("path", staging),
			zap.Error(err))
	}
}

// PreservedStagingPath is the fixed staging location used with
// preservation: next to the output artifact, extension replaced.
func PreservedStagingPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".staging"
}

// OutputPathFor derives the artifact path for an input file: the
// extension replaced with .pdf, the directory overridden when outputDir
// is set.
func OutputPathFor(input, outputDir string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	if outputDir != "" {
		return filepath.Join(outputDir, stem+".pdf")
	}
	dir := filepath.Dir(input)
	return filepath.Join(dir, stem+".pdf")
}

// BatchResult tallies a batch conversion.
type BatchResult struct {
	Succeeded int
	Failed    int
}

// ConvertBatch converts each input independently and accumulates
// success/failure counts. One file's failure never aborts the batch;
// the combined error carries per-file diagnostics for reporting.
func ConvertBatch(ctx context.Context, inputs []string, outputDir string, base Options, engine pdf.Engine, log *zap.Logger) (BatchResult, error) {
	if log == nil {
		log = zap.NewNop()
	}

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return BatchResult{Failed: len(inputs)}, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var res BatchResult
	var errs error
	for i, input := range inputs {
		opts := base
		opts.InputPath = input
		opts.OutputPath = OutputPathFor(input, outputDir)

		log.Info("converting",
			zap.Int("index", i+1),
			zap.Int("total", len(inputs)),
			zap.String("input", input))

		if err := NewPipeline(opts, engine, log).Convert(ctx); err != nil {
			log.Error("conversion failed", zap.String("input", input), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", input, err))
			res.Failed++
			continue
		}
		log.Info("converted", zap.String("output", opts.OutputPath))
		res.Succeeded++
	}

	return res, errs
}
