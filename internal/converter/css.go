package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// pageDimensions maps a page-size token to physical width and height.
// Unknown tokens fall back to A4.
func pageDimensions(pageSize string) (width, height string) {
	switch strings.ToUpper(pageSize) {
	case "A4":
		return "210mm", "297mm"
	case "LETTER":
		return "8.5in", "11in"
	case "A5":
		return "148mm", "210mm"
	case "LEGAL":
		return "8.5in", "14in"
	default:
		return "210mm", "297mm"
	}
}

// GenerateCSS emits the print stylesheet for the composite document.
// It is a pure function of its three parameters: page-size token
// (case-insensitive), margin size in millimeters, and base font size in
// points. The rules encode the pagination semantics the layout engine
// applies: page geometry, running header (book title, captured from the
// first top-level heading via string-set) and footer (page counter),
// widow/orphan control, forced breaks before chapters, and break
// avoidance inside images, tables, and preformatted blocks.
func GenerateCSS(pageSize string, marginsMM, fontSizePT int) string {
	width, height := pageDimensions(pageSize)

	h1Size := formatPt(float64(fontSizePT) * 2)
	h2Size := formatPt(float64(fontSizePT) * 1.5)
	h3Size := formatPt(float64(fontSizePT) * 1.25)
	h4Size := formatPt(float64(fontSizePT) * 1.1)

	var b strings.Builder

	fmt.Fprintf(&b, `@page {
    size: %s %s;
    margin: %dmm;

    @top-center {
        content: string(book-title);
        font-size: 9pt;
        color: #666;
    }

    @bottom-center {
        content: counter(page);
        font-size: 9pt;
        color: #666;
    }
}
`, width, height, marginsMM)

	fmt.Fprintf(&b, `
body {
    font-family: Georgia, 'Times New Roman', serif;
    font-size: %dpt;
    line-height: 1.6;
    text-align: justify;
    color: #000;
}

h1 {
    string-set: book-title content();
    font-size: %s;
    font-weight: bold;
    margin-top: 1em;
    margin-bottom: 0.5em;
    page-break-before: always;
    page-break-after: avoid;
}

h2 {
    font-size: %s;
    font-weight: bold;
    margin-top: 0.8em;
    margin-bottom: 0.4em;
    page-break-after: avoid;
}

h3 {
    font-size: %s;
    font-weight: bold;
    margin-top: 0.6em;
    margin-bottom: 0.3em;
    page-break-after: avoid;
}

h4, h5, h6 {
    font-size: %s;
    font-weight: bold;
    margin-top: 0.5em;
    margin-bottom: 0.25em;
    page-break-after: avoid;
}
`, fontSizePT, h1Size, h2Size, h3Size, h4Size)

	b.WriteString(`
p {
    margin: 0.5em 0;
    text-indent: 1.5em;
    orphans: 3;
    widows: 3;
}

p:first-child,
h1 + p, h2 + p, h3 + p, h4 + p {
    text-indent: 0;
}

img {
    max-width: 100%;
    height: auto;
    display: block;
    margin: 1em auto;
    page-break-inside: avoid;
}

table {
    border-collapse: collapse;
    width: 100%;
    margin: 1em 0;
    page-break-inside: avoid;
}

th, td {
    border: 1px solid #ddd;
    padding: 8px;
    text-align: left;
}

th {
    background-color: #f2f2f2;
    font-weight: bold;
}

blockquote {
    margin: 1em 2em;
    padding: 0.5em 1em;
    border-left: 3px solid #ccc;
    font-style: italic;
}

ul, ol {
    margin: 0.5em 0;
    padding-left: 2em;
}

li {
    margin: 0.25em 0;
}

pre, code {
    font-family: 'Courier New', monospace;
    background-color: #f5f5f5;
    padding: 0.2em 0.4em;
    border-radius: 3px;
}

pre {
    padding: 1em;
    overflow-x: auto;
    page-break-inside: avoid;
}

a {
    color: #0066cc;
    text-decoration: none;
}

hr {
    border: none;
    border-top: 1px solid #ccc;
    margin: 2em 0;
}

.chapter {
    page-break-before: always;
}

.cover-page {
    text-align: center;
    page-break-after: always;
}

.cover-page img {
    max-width: 100%;
    max-height: 90vh;
    margin: 0 auto;
}

.title-page {
    text-align: center;
    padding: 5em 2em;
    page-break-after: always;
}

.title-page h1 {
    font-size: 24pt;
    margin-bottom: 1em;
    page-break-before: avoid;
}

.title-page p.author {
    font-size: 14pt;
    text-indent: 0;
}

.title-page p.publisher {
    font-size: 12pt;
    margin-top: 2em;
    text-indent: 0;
}

.toc {
    page-break-after: always;
}

.toc ul {
    list-style: none;
    padding-left: 0;
}

.toc li.toc-level-1 {
    margin-left: 0;
    font-weight: bold;
}

.toc li.toc-level-2 {
    margin-left: 1.5em;
    font-size: 0.95em;
}

.toc li.toc-level-3 {
    margin-left: 3em;
    font-size: 0.9em;
}
`)

	return b.String()
}

// formatPt formats a point size rounded to a tenth of a point, omitting
// unnecessary decimal places.
func formatPt(val float64) string {
	rounded := math.Round(val*10) / 10
	if rounded == math.Trunc(rounded) {
		return fmt.Sprintf("%dpt", int(rounded))
	}
	return strconv.FormatFloat(rounded, 'f', 1, 64) + "pt"
}
