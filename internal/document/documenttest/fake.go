// Package documenttest provides an in-memory Decoder for tests.
package documenttest

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/local/pageviewer/internal/document"
)

// PageSpec describes one fake page. Width and Height are in points (1/72 in).
type PageSpec struct {
	Width, Height float64
	FetchErr      error
	RasterErr     error
	// Empty makes Rasterize succeed with a zero-sized image.
	Empty bool
}

// Doc is a fake document.
type Doc struct {
	Pages  []PageSpec
	Closed bool
	// Rasterized records every (page, dpi) that was rendered.
	Rasterized []Raster
}

// Raster is one recorded Rasterize call.
type Raster struct {
	Page int
	DPI  float64
}

// NewDoc returns a document of n letter-sized pages.
func NewDoc(n int) *Doc {
	d := &Doc{Pages: make([]PageSpec, n)}
	for i := range d.Pages {
		d.Pages[i] = PageSpec{Width: 612, Height: 792}
	}
	return d
}

func (d *Doc) NumPage() int { return len(d.Pages) }

func (d *Doc) Page(i int) (document.Page, error) {
	if d.Closed {
		return nil, fmt.Errorf("document closed")
	}
	if i < 0 || i >= len(d.Pages) {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", i, len(d.Pages))
	}
	if err := d.Pages[i].FetchErr; err != nil {
		return nil, err
	}
	return &page{doc: d, index: i}, nil
}

func (d *Doc) Close() error {
	d.Closed = true
	return nil
}

type page struct {
	doc   *Doc
	index int
}

func (p *page) Rasterize(dpi float64) (image.Image, error) {
	spec := p.doc.Pages[p.index]
	p.doc.Rasterized = append(p.doc.Rasterized, Raster{Page: p.index, DPI: dpi})
	if spec.RasterErr != nil {
		return nil, spec.RasterErr
	}
	if spec.Empty {
		return image.NewRGBA(image.Rectangle{}), nil
	}
	w := int(math.Round(spec.Width * dpi / 72))
	h := int(math.Round(spec.Height * dpi / 72))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if w > 0 && h > 0 {
		img.Set(0, 0, color.RGBA{R: uint8(p.index), A: 255})
	}
	return img, nil
}

func (p *page) Close() {}

// Decoder serves fake documents by path.
type Decoder struct {
	Docs   map[string]*Doc
	Errs   map[string]error
	Opened []string
}

// NewDecoder returns an empty decoder; unknown paths fail to open.
func NewDecoder() *Decoder {
	return &Decoder{Docs: map[string]*Doc{}, Errs: map[string]error{}}
}

// Add registers doc under path and returns it.
func (d *Decoder) Add(path string, doc *Doc) *Doc {
	d.Docs[path] = doc
	return doc
}

// Fail makes opening path return err.
func (d *Decoder) Fail(path string, err error) {
	d.Errs[path] = err
}

func (d *Decoder) Open(path string) (document.Document, error) {
	d.Opened = append(d.Opened, path)
	if err, ok := d.Errs[path]; ok {
		return nil, err
	}
	doc, ok := d.Docs[path]
	if !ok {
		return nil, fmt.Errorf("cannot parse %s: no objects found", path)
	}
	doc.Closed = false
	return doc, nil
}
