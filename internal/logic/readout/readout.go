package readout

import (
	"fmt"

	"github.com/cjeanneret/HandCam/internal/logic/adjust"
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// Display formats the on-screen readout for the active setting.
// Its only state is the visibility flag.
type Display struct {
	store   *params.Store
	ctrl    *adjust.Controller
	visible bool
}

// New creates a visible display over store and ctrl.
func New(store *params.Store, ctrl *adjust.Controller) *Display {
	return &Display{store: store, ctrl: ctrl, visible: true}
}

// Visible reports whether the readout is shown.
func (d *Display) Visible() bool {
	return d.visible
}

// SetVisible shows or hides the readout.
func (d *Display) SetVisible(v bool) {
	d.visible = v
}

// ToggleVisible flips visibility and returns the new state.
func (d *Display) ToggleVisible() bool {
	d.visible = !d.visible
	return d.visible
}

// Describe formats the value of setting s with its unit.
func (d *Display) Describe(s adjust.Setting) string {
	f := adjust.FieldFor(s, d.store.Profile())
	return Format(f, d.store.Get(f))
}

// Format renders a field value with the unit suffix shown on the camera.
func Format(f params.Field, v float64) string {
	switch f {
	case params.Zoom:
		return fmt.Sprintf("%.1f mm", v)
	case params.Aperture:
		return fmt.Sprintf("f/%.1f", v)
	case params.FocusDistance:
		return fmt.Sprintf("%.2f m", v)
	case params.ExposureBias:
		return fmt.Sprintf("%+.1f EV", v)
	case params.ISO:
		return fmt.Sprintf("ISO %.0f", v)
	case params.ShutterSpeed:
		return fmt.Sprintf("1/%.0f s", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

// Text is the full readout line for the active setting, or "" when hidden.
func (d *Display) Text() string {
	if !d.visible {
		return ""
	}
	s := d.ctrl.Active()
	return s.String() + ": " + d.Describe(s)
}
