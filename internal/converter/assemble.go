package converter

import (
	"bytes"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"epub2pdf/internal/epub"
)

// SourceDocument is one content document in reading order.
type SourceDocument struct {
	Path string
	Data []byte
}

// Cover is the staged cover image, referenced by its staging-relative path.
type Cover struct {
	Path string
	Data []byte
}

// AssembleOptions controls optional parts of the composite document.
type AssembleOptions struct {
	IncludeTOC bool
}

// Assembler concatenates content documents into one composite HTML
// document, prefixed by an optional cover page, a title page, and a
// generated table of contents.
type Assembler struct {
	info      epub.BookInfo
	entries   []NavEntry
	anchors   AnchorMap
	resources ResourceMap
	opts      AssembleOptions
	log       *zap.Logger
}

// NewAssembler creates an assembler for one conversion.
func NewAssembler(info epub.BookInfo, entries []NavEntry, anchors AnchorMap, resources ResourceMap, opts AssembleOptions, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{
		info:      info,
		entries:   entries,
		anchors:   anchors,
		resources: resources,
		opts:      opts,
		log:       log,
	}
}

// Build assembles the composite document. Documents that fail to parse
// are skipped with a warning; one bad chapter never aborts the book.
func (a *Assembler) Build(docs []SourceDocument, cover *Cover) (string, error) {
	var b strings.Builder

	title := a.info.Title
	if title == "" {
		title = "Converted Book"
	}

	b.WriteString(`<!DOCTYPE html><html><head><meta charset="utf-8">`)
	fmt.Fprintf(&b, "<title>%s</title>", html.EscapeString(title))
	b.WriteString("</head>\n<body>\n")

	if cover != nil {
		b.WriteString(a.coverPage(cover))
	}
	b.WriteString(a.titlePage())
	b.WriteString(a.tocBlock())

	for _, doc := range docs {
		body, err := a.processDocument(doc)
		if err != nil {
			a.log.Warn("skipping document",
				zap.String("path", doc.Path),
				zap.Error(err))
			continue
		}
		b.WriteString(body)
		b.WriteString("\n")
	}

	b.WriteString("</body></html>\n")
	return b.String(), nil
}

// coverPage emits a full-page cover image block. The staged bytes are
// decoded only to confirm the cover is a renderable raster image and to
// record its dimensions; an undecodable cover is skipped with a warning.
func (a *Assembler) coverPage(cover *Cover) string {
	img, err := imaging.Decode(bytes.NewReader(cover.Data))
	if err != nil {
		a.log.Warn("skipping cover page: image not decodable",
			zap.String("path", cover.Path),
			zap.Error(err))
		return ""
	}

	bounds := img.Bounds()
	return fmt.Sprintf(
		`<div class="cover-page"><img src="%s" alt="Cover" width="%d" height="%d"/></div>`+"\n",
		html.EscapeString(normalizeRef(cover.Path)), bounds.Dx(), bounds.Dy())
}

// titlePage emits the title block. No title, no title page; author and
// publisher lines degrade to nothing when absent.
func (a *Assembler) titlePage() string {
	if a.info.Title == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="title-page">`)
	fmt.Fprintf(&b, "<h1>%s</h1>", html.EscapeString(a.info.Title))
	if a.info.Author != "" {
		fmt.Fprintf(&b, `<p class="author">by %s</p>`, html.EscapeString(a.info.Author))
	}
	if a.info.Publisher != "" {
		fmt.Fprintf(&b, `<p class="publisher">%s</p>`, html.EscapeString(a.info.Publisher))
	}
	b.WriteString("</div>\n")
	return b.String()
}

// tocBlock emits the generated table of contents: one list item per
// navigation entry, linked to the entry's anchor and classed by depth.
func (a *Assembler) tocBlock() string {
	if !a.opts.IncludeTOC || len(a.entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(`<div class="toc"><h2>Table of Contents</h2><ul>`)
	for _, e := range a.entries {
		depth := e.Depth
		if depth > 3 {
			depth = 3
		}
		label := html.EscapeString(e.Label)
		anchor := a.anchors[anchorKey(e.Target)]
		if anchor == "" {
			fmt.Fprintf(&b, `<li class="toc-level-%d">%s</li>`, depth, label)
			continue
		}
		fmt.Fprintf(&b, `<li class="toc-level-%d"><a href="#%s">%s</a></li>`, depth, anchor, label)
	}
	b.WriteString("</ul></div>\n")
	return b.String()
}

// processDocument parses one content document, strips non-renderable
// elements, rewrites resource references, and returns the body markup.
func (a *Assembler) processDocument(doc SourceDocument) (string, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Data))
	if err != nil {
		return "", fmt.Errorf("failed to parse document: %w", err)
	}

	// Scripts must not reach the pagination engine; source style blocks
	// and stylesheet links are superseded by the generated stylesheet.
	parsed.Find("script").Remove()
	parsed.Find("style").Remove()
	parsed.Find("link[rel='stylesheet']").Remove()

	a.RewriteImageRefs(parsed, path.Dir(doc.Path))

	body := parsed.Find("body")
	if body.Length() == 0 {
		full, err := parsed.Html()
		if err != nil {
			return "", fmt.Errorf("failed to render document: %w", err)
		}
		return full, nil
	}

	a.markFirstHeading(body, doc.Path)

	inner, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("failed to render body: %w", err)
	}
	return inner, nil
}

// RewriteImageRefs rewrites every image reference that is not an
// absolute network URL or data URI to the resource's staging-relative
// path. References that do not resolve to a staged resource are left
// alone, which also makes the rewrite idempotent.
func (a *Assembler) RewriteImageRefs(doc *goquery.Document, baseDir string) {
	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || isExternalRef(src) {
			return
		}
		resolved := resolveRef(baseDir, src)
		staged, ok := a.resources[resolved]
		if !ok {
			a.log.Debug("image reference does not resolve to a staged resource",
				zap.String("src", src))
			return
		}
		s.SetAttr("src", staged)
	})
}

// markFirstHeading adds the "chapter" class to the document's first
// heading (h1 preferred, then h2, then h3) so content starts a fresh
// page, and attaches the anchor id when this document is a TOC target.
func (a *Assembler) markFirstHeading(body *goquery.Selection, docPath string) {
	var heading *goquery.Selection
	for _, tag := range []string{"h1", "h2", "h3"} {
		if h := body.Find(tag).First(); h.Length() > 0 {
			heading = h
			break
		}
	}
	if heading == nil {
		return
	}

	heading.AddClass("chapter")

	if a.opts.IncludeTOC {
		if anchor, ok := a.anchors[normalizeRef(docPath)]; ok {
			heading.SetAttr("id", anchor)
		}
	}
}

// isExternalRef reports whether a reference points outside the archive.
func isExternalRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "data:")
}

// resolveRef resolves a document-relative reference to the normalized
// archive path used as the ResourceMap key.
func resolveRef(baseDir, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return normalizeRef(ref)
	}
	if baseDir == "" || baseDir == "." {
		return normalizeRef(ref)
	}
	return normalizeRef(path.Join(baseDir, ref))
}
