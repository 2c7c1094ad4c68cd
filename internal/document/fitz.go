package document

import (
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzDecoder opens documents with MuPDF. It handles every format MuPDF
// understands (PDF, XPS, EPUB, CBZ, images).
type FitzDecoder struct{}

// NewFitzDecoder returns the MuPDF-backed decoder.
func NewFitzDecoder() FitzDecoder {
	return FitzDecoder{}
}

func (FitzDecoder) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDoc{doc: doc}, nil
}

type fitzDoc struct {
	doc *fitz.Document
}

func (d *fitzDoc) NumPage() int { return d.doc.NumPage() }

func (d *fitzDoc) Page(i int) (Page, error) {
	if i < 0 || i >= d.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", i, d.doc.NumPage())
	}
	// Bound forces MuPDF to load the page, so broken page objects fail here
	// rather than during rasterization.
	bounds, err := d.doc.Bound(i)
	if err != nil {
		return nil, fmt.Errorf("load page %d: %w", i, err)
	}
	return &fitzPage{doc: d.doc, index: i, bounds: bounds}, nil
}

func (d *fitzDoc) Close() error { return d.doc.Close() }

type fitzPage struct {
	doc    *fitz.Document
	index  int
	bounds image.Rectangle
}

func (p *fitzPage) Rasterize(dpi float64) (image.Image, error) {
	img, err := p.doc.ImageDPI(p.index, dpi)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, nil
	}
	return img, nil
}

func (p *fitzPage) Close() {}
