package converter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"epub2pdf/internal/epub"
)

// ResourceMap maps a normalized archive-internal resource path to the
// resource's path relative to the staging root. Staging mirrors the
// archive hierarchy, so key and value coincide; the map's job is to
// record which references actually resolve to a staged file.
type ResourceMap map[string]string

// normalizeRef brings a resource reference into the single canonical
// form used both when the map is built and when document references are
// rewritten: forward slashes, no leading ./ or /, dot segments resolved.
func normalizeRef(p string) string {
	if p == "" {
		return ""
	}
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")
	return filepath.ToSlash(filepath.Clean(p))
}

// ExtractResources copies the given image and cover items out of the
// archive into the staging root, byte for byte, mirroring their archive
// paths. It returns the resource map and the number of staged files.
// An unreadable item or unwritable staging root is fatal for the
// conversion.
func ExtractResources(r *epub.Reader, items []epub.Item, stagingRoot string) (ResourceMap, int, error) {
	resources := make(ResourceMap, len(items))
	count := 0

	for _, item := range items {
		data, err := r.ReadFile(item.Path)
		if err != nil {
			return nil, count, fmt.Errorf("failed to read resource %s: %w", item.Path, err)
		}

		rel := normalizeRef(item.Path)
		dest := filepath.Join(stagingRoot, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, count, fmt.Errorf("failed to create staging directory for %s: %w", item.Path, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, count, fmt.Errorf("failed to stage resource %s: %w", item.Path, err)
		}

		resources[rel] = rel
		count++
	}

	return resources, count, nil
}
