package epub

import (
	"path/filepath"
	"strings"
)

// DocumentItems returns the archive's content documents in spine
// (reading) order. The EPUB 3 navigation document is included but
// tagged ItemNavigation so the assembler can exclude it from the
// composite output.
func (opf *OPF) DocumentItems() []Item {
	var items []Item
	for _, spineItem := range opf.Spine {
		manifestItem, ok := opf.Manifest[spineItem.IDRef]
		if !ok {
			continue
		}
		if !isXHTML(manifestItem.MediaType) {
			continue
		}
		typ := ItemDocument
		if opf.NavDocPath != "" && manifestItem.Href == opf.NavDocPath {
			typ = ItemNavigation
		}
		items = append(items, Item{
			Path:      manifestItem.Href,
			MediaType: manifestItem.MediaType,
			Type:      typ,
		})
	}
	return items
}

// ImageItems returns the archive's image items in manifest declaration
// order. The detected cover image, if any, is tagged ItemCover.
func (opf *OPF) ImageItems() []Item {
	coverHref, _ := opf.DetectCover()

	var items []Item
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImage(item.MediaType) {
			continue
		}
		typ := ItemImage
		if coverHref != "" && item.Href == coverHref {
			typ = ItemCover
		}
		items = append(items, Item{
			Path:      item.Href,
			MediaType: item.MediaType,
			Type:      typ,
		})
	}
	return items
}

// DetectCover finds the cover image href. Detection methods in priority
// order: the EPUB 3 cover-image manifest property, the EPUB 2
// meta name="cover" reference, and finally an image whose basename
// contains "cover".
func (opf *OPF) DetectCover() (string, bool) {
	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return item.Href, true
			}
		}
	}

	if opf.coverID != "" {
		if item, ok := opf.Manifest[opf.coverID]; ok {
			return item.Href, true
		}
	}

	for _, id := range opf.ManifestOrder {
		item := opf.Manifest[id]
		if !isImage(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(filepath.Base(item.Href)), "cover") {
			return item.Href, true
		}
	}

	return "", false
}

// isXHTML checks if a media type indicates an XHTML content file.
func isXHTML(mediaType string) bool {
	return strings.Contains(mediaType, "html")
}

// isImage checks if a media type indicates an image file.
func isImage(mediaType string) bool {
	return strings.HasPrefix(mediaType, "image/")
}
