// Package pdf wraps the external layout engine that turns the styled
// composite document into a paginated artifact.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrEngineNotFound indicates the layout engine binary is not installed.
var ErrEngineNotFound = errors.New("layout engine binary not found")

// Engine lays out a styled HTML document into a paginated artifact.
//
// Required capability: the engine must support CSS paged-media
// string-set/string() so the text of the first top-level heading on a
// page becomes the running-header string, and counter(page) footers.
type Engine interface {
	Render(ctx context.Context, htmlPath, css, outputPath string) error
}

// WeasyPrint renders through the weasyprint command-line tool. The
// directory containing the composite document doubles as the base URL,
// so staging-relative resource references resolve.
type WeasyPrint struct {
	Binary string // defaults to "weasyprint"
}

const stylesheetName = "stylesheet.css"

func (w *WeasyPrint) Render(ctx context.Context, htmlPath, css, outputPath string) error {
	bin := w.Binary
	if bin == "" {
		bin = "weasyprint"
	}

	baseDir := filepath.Dir(htmlPath)
	cssPath := filepath.Join(baseDir, stylesheetName)
	if err := os.WriteFile(cssPath, []byte(css), 0o644); err != nil {
		return fmt.Errorf("failed to write stylesheet: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin,
		htmlPath,
		outputPath,
		"--stylesheet", cssPath,
		"--base-url", baseDir,
	)
	cmd.Dir = baseDir

	out, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrEngineNotFound, bin)
		}
		return fmt.Errorf("layout engine failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
