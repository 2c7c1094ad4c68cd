// Package document owns the decoded document that is currently open.
//
// Decoding and rasterization are delegated to a Decoder; the default one is
// backed by MuPDF through go-fitz. Tests swap in their own Decoder.
package document

import "image"

// Document is a decoded, open document.
type Document interface {
	NumPage() int
	Page(i int) (Page, error)
	Close() error
}

// Page is one materialized page of a Document.
type Page interface {
	// Rasterize renders the page at dpi, used for both axes.
	Rasterize(dpi float64) (image.Image, error)
	Close()
}

// Decoder opens a path into a Document.
type Decoder interface {
	Open(path string) (Document, error)
}

// Info describes the open document.
type Info struct {
	ID        string `json:"id"`
	Path      string `json:"path"`
	PageCount int    `json:"page_count"`
	MIMEType  string `json:"mime_type,omitempty"`
}
