package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

var (
	ErrNotFound           = errors.New("file does not exist")
	ErrBadExtension       = errors.New("file does not have the .epub extension")
	ErrNotZipArchive      = errors.New("file is not a zip archive")
	ErrInvalidMimetype    = errors.New("invalid mimetype: must be 'application/epub+zip'")
	ErrMimetypeCompressed = errors.New("mimetype must not be compressed")
	ErrMimetypeNotFound   = errors.New("mimetype file not found")
	ErrContainerNotFound  = errors.New("META-INF/container.xml not found")
	ErrOPFPathNotFound    = errors.New("OPF path not found in container.xml")
)

// Reader provides access to the contents of an EPUB archive.
type Reader struct {
	zipReader *zip.ReadCloser
	files     map[string]*zip.File
	opfPath   string
}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// Sniff checks that path names an existing file with an .epub extension
// whose leading bytes identify a zip archive. It is cheap enough to run
// before any staging or extraction work begins.
func Sniff(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".epub") {
		return fmt.Errorf("%w: %s", ErrBadExtension, path)
	}

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrNotZipArchive, path)
	}
	if !filetype.IsType(head[:n], matchers.TypeZip) {
		return fmt.Errorf("%w: %s", ErrNotZipArchive, path)
	}
	return nil
}

// Open opens an EPUB file and validates its container structure.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB: %w", err)
	}

	r := &Reader{
		zipReader: zr,
		files:     make(map[string]*zip.File),
	}
	for _, f := range zr.File {
		r.files[normalizePath(f.Name)] = f
	}

	if err := r.validateMimetype(); err != nil {
		zr.Close()
		return nil, err
	}
	if err := r.parseContainer(); err != nil {
		zr.Close()
		return nil, err
	}

	return r, nil
}

// Close closes the underlying zip archive.
func (r *Reader) Close() error {
	return r.zipReader.Close()
}

// OPFPath returns the path of the package document within the archive.
func (r *Reader) OPFPath() string {
	return r.opfPath
}

// Has reports whether the archive contains a file at the given path.
func (r *Reader) Has(path string) bool {
	_, ok := r.files[normalizePath(path)]
	return ok
}

// ReadFile reads the contents of one archive member.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	f, ok := r.files[normalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func (r *Reader) validateMimetype() error {
	f, ok := r.files["mimetype"]
	if !ok {
		return ErrMimetypeNotFound
	}
	if f.Method != zip.Store {
		return ErrMimetypeCompressed
	}

	content, err := r.ReadFile("mimetype")
	if err != nil {
		return fmt.Errorf("failed to read mimetype: %w", err)
	}
	if string(content) != "application/epub+zip" {
		return ErrInvalidMimetype
	}
	return nil
}

func (r *Reader) parseContainer() error {
	content, err := r.ReadFile("META-INF/container.xml")
	if err != nil {
		return ErrContainerNotFound
	}

	var c container
	if err := xml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("failed to parse container.xml: %w", err)
	}

	for _, rf := range c.Rootfiles.Rootfile {
		if rf.MediaType == "application/oebps-package+xml" || rf.MediaType == "" {
			r.opfPath = normalizePath(rf.FullPath)
			return nil
		}
	}
	if len(c.Rootfiles.Rootfile) > 0 {
		r.opfPath = normalizePath(c.Rootfiles.Rootfile[0].FullPath)
		return nil
	}

	return ErrOPFPathNotFound
}

// normalizePath strips a leading ./ from archive member paths.
func normalizePath(path string) string {
	return strings.TrimPrefix(path, "./")
}
