package shutter

import "github.com/cjeanneret/HandCam/internal/logic/capture"

// Chain plays every non-nil cue in order.
type Chain []capture.ShutterSound

// PlayShutter implements capture.ShutterSound.
func (c Chain) PlayShutter() {
	for _, s := range c {
		if s != nil {
			s.PlayShutter()
		}
	}
}
