package adjust

import (
	"time"

	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// Setting is the adjustment target selected on the camera body.
type Setting int

const (
	Zoom Setting = iota
	Aperture
	FocusDistance
	Exposure
	settingCount
)

// Settings lists the ring in order.
func Settings() []Setting {
	return []Setting{Zoom, Aperture, FocusDistance, Exposure}
}

func (s Setting) String() string {
	switch s {
	case Zoom:
		return "Zoom"
	case Aperture:
		return "Aperture"
	case FocusDistance:
		return "Focus"
	case Exposure:
		return "Exposure"
	default:
		return "Unknown"
	}
}

// Next returns the following setting, wrapping from the last to the first.
func (s Setting) Next() Setting {
	return wrap(int(s) + 1)
}

// Previous returns the preceding setting, wrapping from the first to the last.
func (s Setting) Previous() Setting {
	return wrap(int(s) - 1)
}

// wrap maps any integer onto the ring. Go's % keeps the sign of the
// dividend, so negative results are shifted back into [0, settingCount).
func wrap(i int) Setting {
	n := int(settingCount)
	r := i % n
	if r < 0 {
		r += n
	}
	return Setting(r)
}

// FieldFor returns the parameter driven by setting s under profile p.
// Exposure adjusts the bias in the fov profile and ISO in the focal profile.
func FieldFor(s Setting, p params.Profile) params.Field {
	switch s {
	case Zoom:
		return params.Zoom
	case Aperture:
		return params.Aperture
	case FocusDistance:
		return params.FocusDistance
	default:
		if p == params.ProfileFocalLength {
			return params.ISO
		}
		return params.ExposureBias
	}
}

// Controller selects the active setting and applies deltas to it through
// the parameter store. All operations are total; values are clamped by the store.
type Controller struct {
	store  *params.Store
	active Setting
}

// NewController creates a controller with Zoom active.
func NewController(store *params.Store) *Controller {
	return &Controller{store: store, active: Zoom}
}

// Active returns the currently selected setting.
func (c *Controller) Active() Setting {
	return c.active
}

// ActiveField returns the parameter field behind the active setting.
func (c *Controller) ActiveField() params.Field {
	return FieldFor(c.active, c.store.Profile())
}

// SetActive selects s directly. Out-of-ring values are wrapped.
func (c *Controller) SetActive(s Setting) {
	c.active = wrap(int(s))
}

// Next advances the active setting forward.
func (c *Controller) Next() Setting {
	c.active = c.active.Next()
	return c.active
}

// Previous moves the active setting backward.
func (c *Controller) Previous() Setting {
	c.active = c.active.Previous()
	return c.active
}

// Increment raises the active field by one step, or by step*elapsed
// seconds when continuous is true. It returns the stored value.
func (c *Controller) Increment(continuous bool, elapsed time.Duration) float64 {
	return c.apply(1, continuous, elapsed)
}

// Decrement lowers the active field; see Increment.
func (c *Controller) Decrement(continuous bool, elapsed time.Duration) float64 {
	return c.apply(-1, continuous, elapsed)
}

func (c *Controller) apply(sign float64, continuous bool, elapsed time.Duration) float64 {
	f := c.ActiveField()
	delta := sign * c.store.Range(f).Step
	if continuous {
		delta *= elapsed.Seconds()
	}
	return c.store.Nudge(f, delta)
}
