package pipeline

import (
	"errors"
	"fmt"
)

// Kind is the stage at which a render failed.
type Kind string

const (
	KindPageFetch       Kind = "page_fetch"
	KindRasterizeFailed Kind = "rasterize_failed"
)

// RenderError reports a failed render. The cache is never touched when one
// is produced.
type RenderError struct {
	Kind Kind
	Page int
	Zoom float64
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render page %d at zoom %.3f: %s: %v", e.Page+1, e.Zoom, e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// errEmptyRaster is wrapped when the decoder returns no pixels.
var errEmptyRaster = errors.New("decoder returned an empty image")

// AsRenderError extracts a *RenderError from err.
func AsRenderError(err error) (*RenderError, bool) {
	var re *RenderError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrorReporter surfaces render failures to the user.
type ErrorReporter interface {
	ReportRenderError(err *RenderError)
}

// ReporterFunc adapts a function to ErrorReporter.
type ReporterFunc func(err *RenderError)

func (f ReporterFunc) ReportRenderError(err *RenderError) { f(err) }
