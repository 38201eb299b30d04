package render

import (
	"bytes"
	"fmt"
	"strings"
)

// textRenderer is the deterministic reference implementation used by
// tests and local deployments. It produces a plain-text document with a
// metadata preamble and form-feed page breaks; PDF engines plug in
// behind the same interface.
type textRenderer struct {
	linesPerPage int
}

const defaultLinesPerPage = 54

func NewTextRenderer() DocumentRenderer {
	return &textRenderer{linesPerPage: defaultLinesPerPage}
}

const (
	headerPrefix = "%DOC"
	pageBreak    = "\f"
)

func (r *textRenderer) Render(text string, meta Metadata, opts Options) ([]byte, error) {
	if opts.PageSize == "" {
		opts.PageSize = PageSizeA4
	}

	var buf bytes.Buffer
	writeHeader(&buf, meta)
	fmt.Fprintf(&buf, "%s size=%s\n", headerPrefix, opts.PageSize)
	if opts.Watermark != "" {
		fmt.Fprintf(&buf, "%s watermark=%s\n", headerPrefix, opts.Watermark)
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 && i%r.linesPerPage == 0 {
			buf.WriteString(pageBreak)
			buf.WriteString("\n")
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}

	if opts.FooterText != "" {
		fmt.Fprintf(&buf, "%s footer=%s\n", headerPrefix, opts.FooterText)
	}
	return buf.Bytes(), nil
}

func (r *textRenderer) EmbedImage(doc []byte, image []byte, rect Rect) ([]byte, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var buf bytes.Buffer
	buf.Write(doc)
	fmt.Fprintf(&buf, "%s image page=%d x=%d y=%d w=%d h=%d bytes=%d\n",
		headerPrefix, rect.Page, rect.X, rect.Y, rect.Width, rect.Height, len(image))
	return buf.Bytes(), nil
}

func (r *textRenderer) Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("nothing to merge")
	}
	var buf bytes.Buffer
	for i, d := range docs {
		if i > 0 {
			buf.WriteString(pageBreak)
			buf.WriteString("\n")
		}
		buf.Write(d)
	}
	return buf.Bytes(), nil
}

func (r *textRenderer) PageCount(doc []byte) (int, error) {
	if len(doc) == 0 {
		return 0, fmt.Errorf("empty document")
	}
	return bytes.Count(doc, []byte(pageBreak)) + 1, nil
}

func (r *textRenderer) SetMetadata(doc []byte, meta Metadata) ([]byte, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	// Strip any existing preamble, then prepend the new one.
	body := doc
	for {
		idx := bytes.IndexByte(body, '\n')
		if idx < 0 || !bytes.HasPrefix(body, []byte(headerPrefix+" meta.")) {
			break
		}
		body = body[idx+1:]
	}
	var buf bytes.Buffer
	writeHeader(&buf, meta)
	buf.Write(body)
	return buf.Bytes(), nil
}

func writeHeader(buf *bytes.Buffer, meta Metadata) {
	if meta.Title != "" {
		fmt.Fprintf(buf, "%s meta.title=%s\n", headerPrefix, meta.Title)
	}
	if meta.Author != "" {
		fmt.Fprintf(buf, "%s meta.author=%s\n", headerPrefix, meta.Author)
	}
	if meta.Subject != "" {
		fmt.Fprintf(buf, "%s meta.subject=%s\n", headerPrefix, meta.Subject)
	}
	if meta.Creator != "" {
		fmt.Fprintf(buf, "%s meta.creator=%s\n", headerPrefix, meta.Creator)
	}
}
