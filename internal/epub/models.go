package epub

// ItemType discriminates the content items the conversion pipeline
// pulls out of an archive.
type ItemType int

const (
	ItemDocument ItemType = iota
	ItemImage
	ItemCover
	ItemNavigation
)

// Item describes a single content item within the archive. Data is left
// nil by the enumeration helpers; callers read bytes through the Reader
// so that per-item read failures can be handled at the call site.
type Item struct {
	Path      string
	MediaType string
	Type      ItemType
}

// OPF represents the parsed package document.
type OPF struct {
	Info          BookInfo
	Manifest      map[string]ManifestItem // id -> item
	ManifestOrder []string                // ids in declaration order
	Spine         []SpineItem
	NCXPath       string // EPUB 2 navigation (NCX), empty if absent
	NavDocPath    string // EPUB 3 navigation document, empty if absent
	coverID       string // manifest id from meta name="cover"
}

// BookInfo holds the flattened bibliographic fields used for
// presentation. Each field carries the first declared value; an absent
// field is the empty string and degrades to an omitted presentation
// element downstream.
type BookInfo struct {
	Title      string
	Author     string
	Publisher  string
	Language   string
	Date       string
	Identifier string
}

// ManifestItem represents an item in the manifest.
type ManifestItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties []string
}

// SpineItem represents an item reference in the spine.
type SpineItem struct {
	IDRef  string
	Linear bool
}
