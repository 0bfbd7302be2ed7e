package epub

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
)

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Title      []string        `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator    []opfCreator    `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language   []string        `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Publisher  []string        `xml:"http://purl.org/dc/elements/1.1/ publisher"`
	Date       []string        `xml:"http://purl.org/dc/elements/1.1/ date"`
	Meta       []opfMeta       `xml:"meta"`
}

// opfCreator is a compound record: the primary value is the character
// data, attributes refine it.
type opfCreator struct {
	Name string `xml:",chardata"`
	Role string `xml:"http://www.idpf.org/2007/opf role,attr"`
}

type opfIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// ParseOPF parses package document content and returns the OPF structure.
// opfDir is the directory containing the OPF file (e.g. "OEBPS");
// manifest hrefs are resolved against it.
func ParseOPF(content []byte, opfDir string) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse OPF XML: %w", err)
	}

	opf := &OPF{
		Manifest: make(map[string]ManifestItem),
	}

	opf.Info = flattenMetadata(&pkg.Metadata, pkg.UniqueID)

	for _, m := range pkg.Metadata.Meta {
		if m.Name == "cover" && m.Content != "" {
			opf.coverID = m.Content
			break
		}
	}

	for _, item := range pkg.Manifest.Items {
		manifestItem := ManifestItem{
			ID:        item.ID,
			Href:      joinPath(opfDir, item.Href),
			MediaType: item.MediaType,
		}
		if item.Properties != "" {
			manifestItem.Properties = strings.Fields(item.Properties)
		}
		opf.Manifest[item.ID] = manifestItem
		opf.ManifestOrder = append(opf.ManifestOrder, item.ID)

		for _, prop := range manifestItem.Properties {
			if prop == "nav" {
				opf.NavDocPath = manifestItem.Href
			}
		}
	}

	for _, itemRef := range pkg.Spine.ItemRefs {
		opf.Spine = append(opf.Spine, SpineItem{
			IDRef:  itemRef.IDRef,
			Linear: itemRef.Linear != "no",
		})
	}

	// Resolve NCX path from the spine toc attribute
	if pkg.Spine.Toc != "" {
		if ncxItem, ok := opf.Manifest[pkg.Spine.Toc]; ok {
			opf.NCXPath = ncxItem.Href
		}
	}

	return opf, nil
}

// flattenMetadata reduces the raw multi-valued metadata block to one
// representative value per recognized field. The first entry of each
// field wins; compound records contribute their primary value component.
// Absent fields stay empty, there are no error conditions here.
func flattenMetadata(meta *opfMetadata, uniqueID string) BookInfo {
	info := BookInfo{}

	if len(meta.Title) > 0 {
		info.Title = strings.TrimSpace(meta.Title[0])
	}
	if len(meta.Creator) > 0 {
		info.Author = strings.TrimSpace(meta.Creator[0].Name)
	}
	if len(meta.Publisher) > 0 {
		info.Publisher = strings.TrimSpace(meta.Publisher[0])
	}
	if len(meta.Language) > 0 {
		info.Language = strings.TrimSpace(meta.Language[0])
	}
	if len(meta.Date) > 0 {
		info.Date = strings.TrimSpace(meta.Date[0])
	}

	// Identifier: prefer the one marked as the package unique-identifier
	for _, id := range meta.Identifier {
		if id.ID == uniqueID {
			info.Identifier = strings.TrimSpace(id.Value)
			break
		}
	}
	if info.Identifier == "" && len(meta.Identifier) > 0 {
		info.Identifier = strings.TrimSpace(meta.Identifier[0].Value)
	}

	return info
}

// joinPath joins the OPF directory with a relative path.
func joinPath(base, rel string) string {
	if base == "" || base == "." {
		return rel
	}
	return filepath.ToSlash(filepath.Join(base, rel))
}
