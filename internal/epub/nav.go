package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NavNode is one node of the archive's navigation tree. A node with
// Children is a section that may itself be a target; a node without
// Children is a plain link. Href may carry a fragment.
type NavNode struct {
	Label    string
	Href     string
	Children []NavNode
}

// ncx XML structure (EPUB 2 navigation)
type ncxDocument struct {
	XMLName xml.Name `xml:"ncx"`
	NavMap  struct {
		NavPoints []ncxNavPoint `xml:"navPoint"`
	} `xml:"navMap"`
}

type ncxNavPoint struct {
	NavLabel struct {
		Text string `xml:"text"`
	} `xml:"navLabel"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

// LoadNavigation loads the archive's navigation tree, preferring the
// EPUB 3 navigation document over the EPUB 2 NCX. A missing navigation
// structure is not an error; the tree is simply nil.
func LoadNavigation(r *Reader, opf *OPF) ([]NavNode, error) {
	if opf.NavDocPath != "" && r.Has(opf.NavDocPath) {
		data, err := r.ReadFile(opf.NavDocPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read nav document: %w", err)
		}
		return parseNavDoc(data, filepath.Dir(opf.NavDocPath))
	}

	if opf.NCXPath != "" && r.Has(opf.NCXPath) {
		data, err := r.ReadFile(opf.NCXPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read NCX: %w", err)
		}
		return parseNCX(data, filepath.Dir(opf.NCXPath))
	}

	return nil, nil
}

// parseNCX parses an NCX navMap into the navigation tree. baseDir is
// the directory containing the NCX file; content srcs resolve against it.
func parseNCX(content []byte, baseDir string) ([]NavNode, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX XML: %w", err)
	}
	return convertNavPoints(doc.NavMap.NavPoints, baseDir), nil
}

func convertNavPoints(points []ncxNavPoint, baseDir string) []NavNode {
	nodes := make([]NavNode, 0, len(points))
	for _, np := range points {
		node := NavNode{
			Label: strings.TrimSpace(np.NavLabel.Text),
			Href:  resolveNavHref(baseDir, np.Content.Src),
		}
		if len(np.Children) > 0 {
			node.Children = convertNavPoints(np.Children, baseDir)
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// parseNavDoc parses an EPUB 3 navigation document. It looks for the
// nav element with epub:type="toc", falling back to the first nav.
func parseNavDoc(content []byte, baseDir string) ([]NavNode, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nav document: %w", err)
	}

	nav := doc.Find("nav").FilterFunction(func(i int, s *goquery.Selection) bool {
		typ, _ := s.Attr("epub:type")
		return typ == "toc"
	})
	if nav.Length() == 0 {
		nav = doc.Find("nav").First()
	}
	if nav.Length() == 0 {
		return nil, nil
	}

	return parseNavList(nav.ChildrenFiltered("ol"), baseDir), nil
}

// parseNavList converts an ol element's direct li children to NavNodes.
func parseNavList(list *goquery.Selection, baseDir string) []NavNode {
	var nodes []NavNode
	list.ChildrenFiltered("li").Each(func(i int, li *goquery.Selection) {
		node := NavNode{}
		link := li.ChildrenFiltered("a").First()
		if link.Length() > 0 {
			node.Label = strings.TrimSpace(link.Text())
			if href, ok := link.Attr("href"); ok {
				node.Href = resolveNavHref(baseDir, href)
			}
		} else {
			// A span acts as a heading for a sub-list without a target
			node.Label = strings.TrimSpace(li.ChildrenFiltered("span").First().Text())
		}
		if sub := li.ChildrenFiltered("ol"); sub.Length() > 0 {
			node.Children = parseNavList(sub.First(), baseDir)
		}
		nodes = append(nodes, node)
	})
	return nodes
}

// resolveNavHref resolves a navigation target against the navigation
// file's directory, preserving any fragment.
func resolveNavHref(baseDir, href string) string {
	if href == "" {
		return ""
	}
	path, fragment := SplitFragment(href)
	if path != "" {
		path = filepath.ToSlash(filepath.Clean(filepath.Join(baseDir, path)))
	}
	if fragment != "" {
		return path + "#" + fragment
	}
	return path
}

// SplitFragment splits a target into the path and fragment identifier.
func SplitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
