package converter

import (
	"strings"
	"testing"
)

func TestGenerateCSS_Deterministic(t *testing.T) {
	first := GenerateCSS("A4", 20, 12)
	second := GenerateCSS("A4", 20, 12)
	if first != second {
		t.Fatal("GenerateCSS() is not deterministic for identical parameters")
	}
}

func TestGenerateCSS_PageSizes(t *testing.T) {
	tests := []struct {
		pageSize string
		want     string
	}{
		{"A4", "size: 210mm 297mm;"},
		{"a4", "size: 210mm 297mm;"},
		{"Letter", "size: 8.5in 11in;"},
		{"LETTER", "size: 8.5in 11in;"},
		{"A5", "size: 148mm 210mm;"},
		{"Legal", "size: 8.5in 14in;"},
		{"Tabloid", "size: 210mm 297mm;"}, // unknown falls back to A4
	}
	for _, tt := range tests {
		t.Run(tt.pageSize, func(t *testing.T) {
			css := GenerateCSS(tt.pageSize, 20, 12)
			if !strings.Contains(css, tt.want) {
				t.Errorf("GenerateCSS(%q) missing %q", tt.pageSize, tt.want)
			}
		})
	}
}

func TestGenerateCSS_MarginsAndFontSize(t *testing.T) {
	css := GenerateCSS("A4", 25, 11)

	if !strings.Contains(css, "margin: 25mm;") {
		t.Error("margin rule missing")
	}
	if !strings.Contains(css, "font-size: 11pt;") {
		t.Error("base font size missing")
	}
}

func TestGenerateCSS_HeadingScale(t *testing.T) {
	css := GenerateCSS("A4", 20, 12)

	tests := []struct {
		name string
		want string
	}{
		{"h1 at 2x", "font-size: 24pt;"},
		{"h2 at 1.5x", "font-size: 18pt;"},
		{"h3 at 1.25x", "font-size: 15pt;"},
		{"h4 at 1.1x", "font-size: 13.2pt;"},
	}
	for _, tt := range tests {
		if !strings.Contains(css, tt.want) {
			t.Errorf("%s: missing %q", tt.name, tt.want)
		}
	}
}

func TestGenerateCSS_PaginationRules(t *testing.T) {
	css := GenerateCSS("Letter", 15, 10)

	rules := []string{
		"content: string(book-title);",
		"content: counter(page);",
		"string-set: book-title content();",
		"orphans: 3;",
		"widows: 3;",
		".chapter {\n    page-break-before: always;\n}",
		".toc li.toc-level-1",
		".toc li.toc-level-2",
		".toc li.toc-level-3",
		".cover-page",
		".title-page",
	}
	for _, rule := range rules {
		if !strings.Contains(css, rule) {
			t.Errorf("stylesheet missing %q", rule)
		}
	}

	// Break avoidance inside block elements
	for _, selector := range []string{"img", "table", "pre"} {
		idx := strings.Index(css, "\n"+selector+" {")
		if idx < 0 {
			t.Errorf("no rule for %s", selector)
			continue
		}
		block := css[idx:]
		if end := strings.Index(block, "}"); end >= 0 {
			block = block[:end]
		}
		if !strings.Contains(block, "page-break-inside: avoid;") {
			t.Errorf("%s rule does not avoid page breaks", selector)
		}
	}
}

func TestFormatPt(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{24, "24pt"},
		{13.2, "13.2pt"},
		{12.5, "12.5pt"},
	}
	for _, tt := range tests {
		if got := formatPt(tt.in); got != tt.want {
			t.Errorf("formatPt(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
