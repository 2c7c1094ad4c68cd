// Package pipeline turns the current page and zoom into a cached raster.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pageviewer/internal/document"
	"github.com/local/pageviewer/internal/metrics"
	"github.com/local/pageviewer/internal/navigation"
	"github.com/local/pageviewer/internal/rendercache"
	"github.com/local/pageviewer/internal/zoom"
)

// Request is everything needed to render one page, captured at the time the
// render was asked for.
type Request struct {
	Doc        document.Document
	DocumentID string
	PageCount  int
	Page       int
	Zoom       float64
}

// Key is the cache key the request would produce.
func (r Request) Key() rendercache.Key {
	return rendercache.Key{DocumentID: r.DocumentID, Page: r.Page, Zoom: r.Zoom}
}

// DPI is the rasterization resolution for the request.
func (r Request) DPI() float64 {
	return zoom.DPI(r.Zoom)
}

// Pipeline renders the session's current page into the cache.
type Pipeline struct {
	session  *document.Session
	nav      *navigation.Controller
	zoom     *zoom.Controller
	cache    *rendercache.Cache
	reporter ErrorReporter
}

// New wires a pipeline. reporter may be nil.
func New(session *document.Session, nav *navigation.Controller, z *zoom.Controller, cache *rendercache.Cache, reporter ErrorReporter) *Pipeline {
	return &Pipeline{session: session, nav: nav, zoom: z, cache: cache, reporter: reporter}
}

// Cache returns the cache the pipeline writes to.
func (p *Pipeline) Cache() *rendercache.Cache { return p.cache }

// Snapshot captures the current state as a Request. It returns false when no
// document is open.
func (p *Pipeline) Snapshot() (Request, bool) {
	if !p.session.Loaded() {
		return Request{}, false
	}
	info := p.session.Info()
	return Request{
		Doc:        p.session.Document(),
		DocumentID: info.ID,
		PageCount:  info.PageCount,
		Page:       p.nav.Current(),
		Zoom:       p.zoom.Factor(),
	}, true
}

// RenderCurrentPage renders the current page at the current zoom. With no
// document open it does nothing and returns (nil, nil). On failure the cache
// is left as it was, the error is reported and returned.
func (p *Pipeline) RenderCurrentPage(ctx context.Context) (*rendercache.Entry, error) {
	req, ok := p.Snapshot()
	if !ok {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, rerr := Rasterize(req)
	if rerr != nil {
		p.Fail(rerr)
		return nil, rerr
	}
	return p.Commit(req, img), nil
}

// Rasterize fetches the requested page and renders it. It does not touch any
// pipeline state, so it is safe to call off the owning goroutine as long as
// the document stays open.
func Rasterize(req Request) (image.Image, *RenderError) {
	start := time.Now()
	metrics.SetView(req.Page, req.Zoom)

	page, err := req.Doc.Page(req.Page)
	if err != nil {
		metrics.ObserveRender(string(KindPageFetch), time.Since(start))
		return nil, &RenderError{Kind: KindPageFetch, Page: req.Page, Zoom: req.Zoom, Err: err}
	}
	if page == nil {
		metrics.ObserveRender(string(KindPageFetch), time.Since(start))
		return nil, &RenderError{Kind: KindPageFetch, Page: req.Page, Zoom: req.Zoom, Err: fmt.Errorf("page %d not available", req.Page)}
	}
	defer page.Close()

	img, err := page.Rasterize(req.DPI())
	if err == nil && (img == nil || img.Bounds().Empty()) {
		err = errEmptyRaster
	}
	if err != nil {
		metrics.ObserveRender(string(KindRasterizeFailed), time.Since(start))
		return nil, &RenderError{Kind: KindRasterizeFailed, Page: req.Page, Zoom: req.Zoom, Err: err}
	}

	dur := time.Since(start)
	metrics.ObserveRender("ok", dur)
	log.Debug().
		Str("doc_id", req.DocumentID).
		Int("page", req.Page+1).
		Float64("zoom", req.Zoom).
		Float64("dpi", req.DPI()).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Dur("took", dur).
		Msg("rendered page")
	return img, nil
}

// Commit stores a successful render in the cache.
func (p *Pipeline) Commit(req Request, img image.Image) *rendercache.Entry {
	return p.cache.Replace(req.Key(), req.PageCount, img)
}

// Fail logs and reports a render error.
func (p *Pipeline) Fail(err *RenderError) {
	log.Error().Err(err.Err).
		Str("kind", string(err.Kind)).
		Int("page", err.Page+1).
		Float64("zoom", err.Zoom).
		Msg("render failed")
	if p.reporter != nil {
		p.reporter.ReportRenderError(err)
	}
}
