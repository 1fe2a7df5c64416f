package handheld

import (
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// State is a copy of what the camera shows, for remote displays.
type State struct {
	Setting         string             `json:"setting"`
	Text            string             `json:"text"`
	Visible         bool               `json:"visible"`
	Profile         string             `json:"profile"`
	Mode            string             `json:"mode"`
	Values          map[string]float64 `json:"values"`
	GalleryCount    int                `json:"gallery_count"`
	GalleryCapacity int                `json:"gallery_capacity"`
	PendingCaptures int                `json:"pending_captures"`
	Diagnostics     []string           `json:"diagnostics,omitempty"`
}

// State returns a snapshot of the camera for display outside the control goroutine.
func (c *Camera) State() State {
	values := make(map[string]float64, len(params.Fields()))
	for _, f := range params.Fields() {
		values[f.String()] = c.store.Get(f)
	}
	var diags []string
	for _, err := range c.diagnostics {
		diags = append(diags, err.Error())
	}
	g := c.pipeline.Gallery()
	return State{
		Setting:         c.ctrl.Active().String(),
		Text:            c.display.Text(),
		Visible:         c.display.Visible(),
		Profile:         c.store.Profile().String(),
		Mode:            c.mapper.Mode().String(),
		Values:          values,
		GalleryCount:    g.Len(),
		GalleryCapacity: g.Capacity(),
		PendingCaptures: c.sched.Pending(),
		Diagnostics:     diags,
	}
}
