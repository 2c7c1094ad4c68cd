package rendercache

import (
	"fmt"
	"image"
)

// Key identifies what a raster was produced from.
type Key struct {
	DocumentID string
	Page       int
	Zoom       float64
}

// Entry is one successfully rendered page. Entries are never mutated after
// they are stored; a new render replaces the whole entry.
type Entry struct {
	Key       Key
	PageCount int
	Image     image.Image
	Size      image.Point
}

// Label returns the page-position string for the entry, e.g. "Page: 2/10".
func (e *Entry) Label() string {
	return FormatLabel(e.Key.Page, e.PageCount)
}

// FormatLabel formats a zero-based page index against a page count.
func FormatLabel(page, pageCount int) string {
	return fmt.Sprintf("Page: %d/%d", page+1, pageCount)
}

// Cache holds at most one rendered page.
type Cache struct {
	entry *Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{}
}

// Replace stores a new entry for key, discarding the previous one.
func (c *Cache) Replace(key Key, pageCount int, img image.Image) *Entry {
	b := img.Bounds()
	e := &Entry{
		Key:       key,
		PageCount: pageCount,
		Image:     img,
		Size:      image.Pt(b.Dx(), b.Dy()),
	}
	c.entry = e
	return e
}

// Current returns the cached entry, or nil if nothing was rendered yet.
func (c *Cache) Current() *Entry {
	return c.entry
}
