package navigation

// Controller tracks the current page of the open document. Moving past either
// end is a silent no-op.
type Controller struct {
	current int
	count   int
}

// New returns a controller for a document with no pages.
func New() *Controller {
	return &Controller{}
}

// Reset moves to the first page of a document with pageCount pages.
func (c *Controller) Reset(pageCount int) {
	if pageCount < 0 {
		pageCount = 0
	}
	c.count = pageCount
	c.current = 0
}

// Next advances one page and reports whether the page changed.
func (c *Controller) Next() bool {
	if c.current < c.count-1 {
		c.current++
		return true
	}
	return false
}

// Previous goes back one page and reports whether the page changed.
func (c *Controller) Previous() bool {
	if c.current > 0 {
		c.current--
		return true
	}
	return false
}

func (c *Controller) Current() int { return c.current }
func (c *Controller) Count() int   { return c.count }
