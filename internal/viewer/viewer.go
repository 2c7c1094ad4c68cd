// Package viewer is the single entry point a UI drives: five user actions in,
// an image or an error out through Display.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/rs/zerolog/log"

	"github.com/local/pageviewer/internal/document"
	"github.com/local/pageviewer/internal/metrics"
	"github.com/local/pageviewer/internal/navigation"
	"github.com/local/pageviewer/internal/pipeline"
	"github.com/local/pageviewer/internal/rendercache"
	"github.com/local/pageviewer/internal/zoom"
)

// ErrorKind classifies what Display.OnError is reporting.
type ErrorKind string

const (
	ErrorLoad      ErrorKind = "load"
	ErrorPageFetch ErrorKind = "page_fetch"
	ErrorRasterize ErrorKind = "rasterize"
)

// Display receives the outcome of every action.
type Display interface {
	OnImageReady(img image.Image, label string)
	OnError(kind ErrorKind, message string)
}

// Resolver turns a document reference into a local path. cleanup, if not
// nil, runs once the document is no longer open.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (path string, cleanup func(), err error)
}

// State is the viewer's coarse state.
type State string

const (
	StateClosed State = "closed"
	StateLoaded State = "loaded"
)

// Options configures a Viewer.
type Options struct {
	Session  document.Options
	Resolver Resolver
	// Async renders on a background goroutine; results arrive on Results
	// and must be passed to Deliver.
	Async bool
}

// Viewer ties the session, navigation, zoom and render pipeline together.
// It is not safe for concurrent use; hosts serialize calls, see Loop.
type Viewer struct {
	display  Display
	resolver Resolver
	keepOld  bool

	session  *document.Session
	nav      *navigation.Controller
	zoom     *zoom.Controller
	cache    *rendercache.Cache
	pipeline *pipeline.Pipeline
	worker   *pipeline.Worker
}

// New builds a viewer with no document open.
func New(display Display, opts Options) *Viewer {
	v := &Viewer{
		display:  display,
		resolver: opts.Resolver,
		keepOld:  opts.Session.KeepOnFailedOpen,
		session:  document.NewSession(opts.Session),
		nav:      navigation.New(),
		zoom:     zoom.New(),
		cache:    rendercache.New(),
	}
	v.pipeline = pipeline.New(v.session, v.nav, v.zoom, v.cache, v)
	if opts.Async {
		v.worker = pipeline.NewWorker(v.pipeline)
	}
	return v
}

// Open replaces the current document with ref and renders its first page.
func (v *Viewer) Open(ctx context.Context, ref string) error {
	if v.worker != nil {
		v.worker.Flush()
	}

	path, cleanup := ref, func() {}
	if v.resolver != nil {
		p, c, err := v.resolver.Resolve(ctx, ref)
		if err != nil {
			if !v.keepOld {
				v.session.Close()
			}
			return v.failOpen(&document.LoadError{Path: ref, Reason: document.ReasonSource, Err: err})
		}
		path = p
		if c != nil {
			cleanup = c
		}
	}

	info, err := v.session.Open(path, document.WithCleanup(cleanup))
	if err != nil {
		return v.failOpen(err)
	}
	metrics.IncOpen("ok")

	v.nav.Reset(info.PageCount)
	v.zoom.Reset()
	return v.render(ctx)
}

func (v *Viewer) failOpen(err error) error {
	var le *document.LoadError
	if errors.As(err, &le) {
		metrics.IncOpen(string(le.Reason))
		if le.Reason == document.ReasonSource {
			log.Warn().Err(le.Err).Str("ref", le.Path).Msg("document source unavailable")
		}
	} else {
		metrics.IncOpen("error")
	}
	v.display.OnError(ErrorLoad, fmt.Sprintf("Error opening document: %v", err))
	// Open flushed the worker; the kept document still owes a render.
	if v.worker != nil && v.session.Loaded() {
		v.worker.Submit()
	}
	return err
}

// NextPage moves forward one page, if there is one, and renders.
func (v *Viewer) NextPage(ctx context.Context) error {
	if !v.session.Loaded() {
		return nil
	}
	v.nav.Next()
	return v.render(ctx)
}

// PreviousPage moves back one page, if there is one, and renders.
func (v *Viewer) PreviousPage(ctx context.Context) error {
	if !v.session.Loaded() {
		return nil
	}
	v.nav.Previous()
	return v.render(ctx)
}

func (v *Viewer) ZoomIn(ctx context.Context) error {
	if !v.session.Loaded() {
		return nil
	}
	v.zoom.ZoomIn()
	return v.render(ctx)
}

func (v *Viewer) ZoomOut(ctx context.Context) error {
	if !v.session.Loaded() {
		return nil
	}
	v.zoom.ZoomOut()
	return v.render(ctx)
}

func (v *Viewer) render(ctx context.Context) error {
	if v.worker != nil {
		v.worker.Submit()
		return nil
	}
	entry, err := v.pipeline.RenderCurrentPage(ctx)
	if entry != nil {
		v.display.OnImageReady(entry.Image, entry.Label())
	}
	return err
}

// Results delivers asynchronous renders. It is nil for a synchronous viewer.
func (v *Viewer) Results() <-chan pipeline.Result {
	if v.worker == nil {
		return nil
	}
	return v.worker.Results()
}

// Deliver applies an asynchronous render result, dropping it if a newer
// request has been made since.
func (v *Viewer) Deliver(res pipeline.Result) {
	if v.worker == nil {
		return
	}
	if entry, _ := v.worker.Apply(res); entry != nil {
		v.display.OnImageReady(entry.Image, entry.Label())
	}
}

// ReportRenderError implements pipeline.ErrorReporter.
func (v *Viewer) ReportRenderError(err *pipeline.RenderError) {
	switch err.Kind {
	case pipeline.KindPageFetch:
		v.display.OnError(ErrorPageFetch, fmt.Sprintf("Error loading page %d: %v", err.Page+1, err.Err))
	default:
		v.display.OnError(ErrorRasterize, fmt.Sprintf("Error rendering page %d: %v", err.Page+1, err.Err))
	}
}

// Close stops background rendering and releases the document.
func (v *Viewer) Close() {
	if v.worker != nil {
		v.worker.Stop()
	}
	v.session.Close()
}

// Status is a read-only view of the viewer for hosts.
type Status struct {
	State     State   `json:"state"`
	Path      string  `json:"path,omitempty"`
	Page      int     `json:"page"`
	PageCount int     `json:"page_count"`
	Zoom      float64 `json:"zoom"`
	// Label belongs to the displayed image, which may lag Page after a
	// failed render.
	Label       string `json:"label"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`
}

// Status reports the current state.
func (v *Viewer) Status() Status {
	st := Status{State: StateClosed, Label: rendercache.FormatLabel(-1, 0), Zoom: v.zoom.Factor()}
	if v.session.Loaded() {
		info := v.session.Info()
		st.State = StateLoaded
		st.Path = info.Path
		st.Page = v.nav.Current()
		st.PageCount = v.nav.Count()
	}
	if e := v.cache.Current(); e != nil {
		st.Label = e.Label()
		st.ImageWidth = e.Size.X
		st.ImageHeight = e.Size.Y
	}
	return st
}

// Current returns the displayed render, or nil.
func (v *Viewer) Current() *rendercache.Entry {
	return v.cache.Current()
}
