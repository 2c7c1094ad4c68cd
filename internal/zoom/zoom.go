// Package zoom tracks the magnification factor of the open document.
package zoom

const (
	// InFactor is applied on every zoom-in step.
	InFactor = 1.2
	// OutFactor is applied on every zoom-out step.
	OutFactor = 0.8
	// BaseDPI is the resolution of a page at factor 1.0.
	BaseDPI = 72.0
)

// Controller owns the current zoom factor. The factor is not clamped; steps
// compound for as long as the document stays open.
type Controller struct {
	factor float64
}

// New returns a controller at factor 1.0.
func New() *Controller {
	return &Controller{factor: 1.0}
}

func (c *Controller) ZoomIn()  { c.factor *= InFactor }
func (c *Controller) ZoomOut() { c.factor *= OutFactor }

// Reset puts the factor back to 1.0; called on every successful open.
func (c *Controller) Reset() { c.factor = 1.0 }

func (c *Controller) Factor() float64 { return c.factor }

// DPI is the rasterization resolution for factor. The same value is used
// horizontally and vertically.
func DPI(factor float64) float64 {
	return BaseDPI * factor
}
