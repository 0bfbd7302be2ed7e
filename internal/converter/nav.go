package converter

import (
	"strings"

	"epub2pdf/internal/epub"
)

// NavEntry is one row of the flattened navigation: a label, the target
// path within the archive (possibly carrying a fragment), and the
// nesting depth it was found at. Depth is presentation-only, it drives
// TOC indentation and nothing else.
type NavEntry struct {
	Label  string
	Target string
	Depth  int
}

// AnchorMap maps a fragment-stripped, normalized document path to the
// anchor identifier attached to that document's first heading.
type AnchorMap map[string]string

// knownDocExts are the document extensions stripped when deriving
// anchor identifiers.
var knownDocExts = []string{".xhtml", ".html", ".htm", ".xml"}

// Linearize flattens the navigation tree depth-first in declaration
// order. A section contributes one entry for itself when it carries
// both a label and a target, then its children at depth+1; a leaf link
// contributes a single entry at the current depth.
func Linearize(tree []epub.NavNode) []NavEntry {
	return linearize(tree, 1)
}

func linearize(nodes []epub.NavNode, depth int) []NavEntry {
	var entries []NavEntry
	for _, node := range nodes {
		if node.Label != "" && node.Href != "" {
			entries = append(entries, NavEntry{
				Label:  node.Label,
				Target: node.Href,
				Depth:  depth,
			})
		}
		if len(node.Children) > 0 {
			entries = append(entries, linearize(node.Children, depth+1)...)
		}
	}
	return entries
}

// BuildAnchorMap derives the document-path to anchor-id mapping from
// the linearized navigation. When several entries strip to the same
// document path (different fragments into one file), the first entry's
// anchor wins; TOC links resolve through this map, so they all point at
// the one anchor that ends up attached to the document's heading.
func BuildAnchorMap(entries []NavEntry) AnchorMap {
	anchors := make(AnchorMap, len(entries))
	for _, e := range entries {
		key := anchorKey(e.Target)
		if key == "" {
			continue
		}
		if _, ok := anchors[key]; ok {
			continue
		}
		anchors[key] = anchorID(e.Target)
	}
	return anchors
}

// anchorKey normalizes a navigation target to the fragment-stripped
// document path used as the AnchorMap key.
func anchorKey(target string) string {
	path, _ := epub.SplitFragment(target)
	if path == "" {
		return ""
	}
	return normalizeRef(path)
}

// anchorID derives a deterministic anchor identifier from a navigation
// target: the known document extension is dropped and path separators,
// dots, and fragment markers are all replaced with underscores.
func anchorID(target string) string {
	path, fragment := epub.SplitFragment(target)
	path = stripDocExt(path)
	if fragment != "" {
		path = path + "#" + fragment
	}
	replacer := strings.NewReplacer("/", "_", ".", "_", "#", "_")
	return replacer.Replace(path)
}

func stripDocExt(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range knownDocExts {
		if strings.HasSuffix(lower, ext) {
			return path[:len(path)-len(ext)]
		}
	}
	return path
}
