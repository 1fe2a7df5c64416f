package sim

import (
	"image"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/logic/gallery"
)

// Print is a printed photo lying in the world.
type Print struct {
	Seq      uint64
	Pixels   *image.RGBA
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Tray keeps the most recent printed photos.
type Tray struct {
	max    int
	prints []Print
}

// NewTray keeps at most max prints; older ones are discarded. max below 1 keeps one.
func NewTray(max int) *Tray {
	if max < 1 {
		max = 1
	}
	return &Tray{max: max}
}

// SpawnPhoto implements capture.PhotoPrinter. The pixels are copied.
func (t *Tray) SpawnPhoto(img *gallery.CapturedImage, pos mgl64.Vec3, rot mgl64.Quat) {
	if img == nil {
		return
	}
	p := Print{Seq: img.Seq, Pixels: img.Clone(), Position: pos, Rotation: rot}
	if len(t.prints) == t.max {
		copy(t.prints, t.prints[1:])
		t.prints = t.prints[:len(t.prints)-1]
	}
	t.prints = append(t.prints, p)
	debug.Live("printed photo #%d at (%.2f, %.2f, %.2f)", img.Seq, pos.X(), pos.Y(), pos.Z())
}

// Prints returns the prints in spawn order.
func (t *Tray) Prints() []Print {
	out := make([]Print, len(t.prints))
	copy(out, t.prints)
	return out
}

// Shutter plays the shutter cue as a log line and counts it.
type Shutter struct {
	plays int
}

// PlayShutter implements capture.ShutterSound.
func (s *Shutter) PlayShutter() {
	s.plays++
	debug.Live("*click*")
}

// Plays returns how many times the cue was played.
func (s *Shutter) Plays() int {
	return s.plays
}
