package render

// Package render defines the document renderer the contract engine
// consumes. The engine treats the returned bytes as an opaque document;
// layout decisions live entirely behind this interface.

// PageSize identifiers understood by renderer implementations.
const (
	PageSizeA4     = "A4"
	PageSizeLetter = "LETTER"
)

// Metadata is embedded into the produced document.
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Options control page geometry and decoration. Zero values mean
// renderer defaults.
type Options struct {
	PageSize     string
	MarginTopMM  int
	MarginSideMM int
	FooterText   string
	Watermark    string
}

// Rect positions an embedded image on a page, in millimeters.
type Rect struct {
	Page   int
	X      int
	Y      int
	Width  int
	Height int
}

// DocumentRenderer turns rendered contract text into document bytes and
// performs byte-level document operations. Implementations must be
// deterministic for identical inputs so archived documents remain
// reproducible.
type DocumentRenderer interface {
	Render(text string, meta Metadata, opts Options) ([]byte, error)
	EmbedImage(doc []byte, image []byte, rect Rect) ([]byte, error)
	Merge(docs [][]byte) ([]byte, error)
	PageCount(doc []byte) (int, error)
	SetMetadata(doc []byte, meta Metadata) ([]byte, error)
}
