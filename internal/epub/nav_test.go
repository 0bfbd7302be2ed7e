package epub

import (
	"path/filepath"
	"testing"
)

func TestSplitFragment(t *testing.T) {
	tests := []struct {
		name         string
		src          string
		wantPath     string
		wantFragment string
	}{
		{"path with fragment", "chapter1.xhtml#sec1", "chapter1.xhtml", "sec1"},
		{"path without fragment", "chapter1.xhtml", "chapter1.xhtml", ""},
		{"fragment only", "#sec1", "", "sec1"},
		{"empty", "", "", ""},
		{"directory path", "text/ch1.xhtml#anchor", "text/ch1.xhtml", "anchor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPath, gotFragment := SplitFragment(tt.src)
			if gotPath != tt.wantPath || gotFragment != tt.wantFragment {
				t.Errorf("SplitFragment(%q) = (%q, %q), want (%q, %q)",
					tt.src, gotPath, gotFragment, tt.wantPath, tt.wantFragment)
			}
		})
	}
}

const nestedNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <docTitle><text>Test Book</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Part One</text></navLabel>
      <content src="part1.xhtml"/>
      <navPoint id="np2" playOrder="2">
        <navLabel><text>Chapter 1</text></navLabel>
        <content src="ch1.xhtml#start"/>
      </navPoint>
    </navPoint>
    <navPoint id="np3" playOrder="3">
      <navLabel><text>Part Two</text></navLabel>
      <content src="part2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

func TestParseNCX_Nested(t *testing.T) {
	tree, err := parseNCX([]byte(nestedNCX), "OEBPS")
	if err != nil {
		t.Fatalf("parseNCX() error = %v", err)
	}

	if len(tree) != 2 {
		t.Fatalf("got %d top-level nodes, want 2", len(tree))
	}
	if tree[0].Label != "Part One" || tree[0].Href != "OEBPS/part1.xhtml" {
		t.Errorf("tree[0] = %+v", tree[0])
	}
	if len(tree[0].Children) != 1 {
		t.Fatalf("tree[0] has %d children, want 1", len(tree[0].Children))
	}
	child := tree[0].Children[0]
	if child.Label != "Chapter 1" || child.Href != "OEBPS/ch1.xhtml#start" {
		t.Errorf("child = %+v", child)
	}
	if tree[1].Label != "Part Two" {
		t.Errorf("tree[1].Label = %q", tree[1].Label)
	}
}

func TestParseNCX_Invalid(t *testing.T) {
	if _, err := parseNCX([]byte("<ncx"), "OEBPS"); err == nil {
		t.Fatal("parseNCX() should fail on malformed XML")
	}
}

const epub3Nav = `<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
<nav epub:type="landmarks"><ol><li><a href="ignored.xhtml">Ignored</a></li></ol></nav>
<nav epub:type="toc">
  <ol>
    <li><a href="ch1.xhtml">Chapter 1</a>
      <ol>
        <li><a href="ch1.xhtml#sec1">Section 1.1</a></li>
      </ol>
    </li>
    <li><span>Appendices</span>
      <ol>
        <li><a href="appendix.xhtml">Appendix A</a></li>
      </ol>
    </li>
  </ol>
</nav>
</body>
</html>`

func TestParseNavDoc(t *testing.T) {
	tree, err := parseNavDoc([]byte(epub3Nav), "OEBPS")
	if err != nil {
		t.Fatalf("parseNavDoc() error = %v", err)
	}

	if len(tree) != 2 {
		t.Fatalf("got %d top-level nodes, want 2", len(tree))
	}
	if tree[0].Label != "Chapter 1" || tree[0].Href != "OEBPS/ch1.xhtml" {
		t.Errorf("tree[0] = %+v", tree[0])
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Href != "OEBPS/ch1.xhtml#sec1" {
		t.Errorf("tree[0].Children = %+v", tree[0].Children)
	}
	// Heading-only section: label from span, no target
	if tree[1].Label != "Appendices" || tree[1].Href != "" {
		t.Errorf("tree[1] = %+v", tree[1])
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].Label != "Appendix A" {
		t.Errorf("tree[1].Children = %+v", tree[1].Children)
	}
}

func TestLoadNavigation_PrefersNavDoc(t *testing.T) {
	dir := t.TempDir()
	opfXML := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>T</dc:title></metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx"><itemref idref="ch1"/></spine>
</package>`
	path := writeEPUB(t, filepath.Join(dir, "nav.epub"), []epubFile{
		{name: "mimetype", data: "application/epub+zip", stored: true},
		{name: "META-INF/container.xml", data: containerXML},
		{name: "OEBPS/content.opf", data: opfXML},
		{name: "OEBPS/nav.xhtml", data: epub3Nav},
		{name: "OEBPS/toc.ncx", data: nestedNCX},
		{name: "OEBPS/ch1.xhtml", data: "<html><body/></html>"},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	opfData, err := r.ReadFile(r.OPFPath())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	opf, err := ParseOPF(opfData, "OEBPS")
	if err != nil {
		t.Fatalf("ParseOPF() error = %v", err)
	}

	tree, err := LoadNavigation(r, opf)
	if err != nil {
		t.Fatalf("LoadNavigation() error = %v", err)
	}
	// nav.xhtml wins over toc.ncx
	if len(tree) != 2 || tree[0].Label != "Chapter 1" {
		t.Fatalf("LoadNavigation() tree = %+v, want nav document content", tree)
	}
}

func TestLoadNavigation_Absent(t *testing.T) {
	dir := t.TempDir()
	path := minimalEPUB(t, dir)

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer r.Close()

	opfData, _ := r.ReadFile(r.OPFPath())
	opf, err := ParseOPF(opfData, "OEBPS")
	if err != nil {
		t.Fatalf("ParseOPF() error = %v", err)
	}

	tree, err := LoadNavigation(r, opf)
	if err != nil {
		t.Fatalf("LoadNavigation() error = %v", err)
	}
	if tree != nil {
		t.Fatalf("LoadNavigation() = %+v, want nil for missing navigation", tree)
	}
}

func TestResolveNavHref(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		href    string
		want    string
	}{
		{"plain", "OEBPS", "ch1.xhtml", "OEBPS/ch1.xhtml"},
		{"with fragment", "OEBPS", "ch1.xhtml#sec", "OEBPS/ch1.xhtml#sec"},
		{"parent traversal", "OEBPS/text", "../images/x.xhtml", "OEBPS/images/x.xhtml"},
		{"empty", "OEBPS", "", ""},
		{"root base", ".", "ch1.xhtml", "ch1.xhtml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveNavHref(tt.baseDir, tt.href); got != tt.want {
				t.Errorf("resolveNavHref(%q, %q) = %q, want %q", tt.baseDir, tt.href, got, tt.want)
			}
		})
	}
}
