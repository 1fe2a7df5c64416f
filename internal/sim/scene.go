// Package sim provides software stand-ins for the rendering side of the
// camera: a procedural scene that acts as lens, physical camera,
// post-processing volume and frame buffer, plus a photo tray and a
// logging shutter.
package sim

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/logic/capture"
	"github.com/cjeanneret/HandCam/internal/logic/effects"
)

// ErrNotRendered is returned by ReadPixels before the first frame.
var ErrNotRendered = errors.New("no frame rendered yet")

// referenceFOV is the field of view at which the pattern is drawn unscaled.
const referenceFOV = 60.0

// VolumeEffects selects which effects the scene's post-processing volume carries.
type VolumeEffects struct {
	DepthOfField     bool
	FilmGrain        bool
	ColorAdjustments bool
}

// AllEffects enables every post-processing effect.
var AllEffects = VolumeEffects{DepthOfField: true, FilmGrain: true, ColorAdjustments: true}

// state is what one rendered frame shows.
type state struct {
	frame        uint64
	fov          float64
	physical     effects.PhysicalSettings
	physicalSet  bool
	dof          effects.DepthOfFieldSettings
	grain        float64
	postExposure float64
}

// Scene is a procedural scene rendered into a fixed-size frame buffer.
// It is not safe for concurrent use; the frame loop owns it.
//
// Render only records the scene state; pixels are rasterized from the
// last rendered state when ReadPixels is called.
type Scene struct {
	width, height int
	volume        VolumeEffects

	live     state
	rendered *state
}

// NewScene creates a scene with a width x height frame buffer.
func NewScene(width, height int, volume VolumeEffects) (*Scene, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("scene size must be positive")
	}
	return &Scene{
		width:  width,
		height: height,
		volume: volume,
		live:   state{fov: referenceFOV},
	}, nil
}

// Size returns the frame buffer size.
func (s *Scene) Size() (int, int) {
	return s.width, s.height
}

// FieldOfView implements effects.Lens.
func (s *Scene) FieldOfView() float64 { return s.live.fov }

// SetFieldOfView implements effects.Lens. The value is kept within (0, 179].
func (s *Scene) SetFieldOfView(deg float64) {
	if deg <= 0 || math.IsNaN(deg) {
		deg = 1
	}
	if deg > 179 {
		deg = 179
	}
	s.live.fov = deg
}

// SetPhysical implements effects.PhysicalCamera.
func (s *Scene) SetPhysical(p effects.PhysicalSettings) {
	s.live.physical = p
	s.live.physicalSet = true
}

// DepthOfField implements effects.Profile.
func (s *Scene) DepthOfField() (effects.DepthOfField, bool) {
	if !s.volume.DepthOfField {
		return nil, false
	}
	return dofEffect{s}, true
}

// FilmGrain implements effects.Profile.
func (s *Scene) FilmGrain() (effects.FilmGrain, bool) {
	if !s.volume.FilmGrain {
		return nil, false
	}
	return grainEffect{s}, true
}

// ColorAdjustments implements effects.Profile.
func (s *Scene) ColorAdjustments() (effects.ColorAdjustments, bool) {
	if !s.volume.ColorAdjustments {
		return nil, false
	}
	return colorEffect{s}, true
}

type dofEffect struct{ s *Scene }

func (e dofEffect) SetDepthOfField(d effects.DepthOfFieldSettings) { e.s.live.dof = d }

type grainEffect struct{ s *Scene }

func (e grainEffect) SetIntensity(v float64) { e.s.live.grain = v }

type colorEffect struct{ s *Scene }

func (e colorEffect) SetPostExposure(stops float64) { e.s.live.postExposure = stops }

// Render draws the current frame.
func (s *Scene) Render() error {
	s.live.frame++
	snap := s.live
	s.rendered = &snap
	return nil
}

// Frames returns the number of rendered frames.
func (s *Scene) Frames() uint64 {
	return s.live.frame
}

// Grain returns the grain intensity currently applied.
func (s *Scene) Grain() float64 { return s.live.grain }

// PostExposure returns the post exposure currently applied.
func (s *Scene) PostExposure() float64 { return s.live.postExposure }

// DepthOfFieldSettings returns the depth of field currently applied.
func (s *Scene) DepthOfFieldSettings() effects.DepthOfFieldSettings { return s.live.dof }

// Physical returns the physical settings currently applied.
func (s *Scene) Physical() effects.PhysicalSettings { return s.live.physical }

// ReadPixels implements capture.RenderTarget.
func (s *Scene) ReadPixels() (image.Image, error) {
	if s.rendered == nil {
		return nil, ErrNotRendered
	}
	return s.rasterize(*s.rendered), nil
}

// OnDemand wraps s so captures render the current frame immediately
// instead of waiting for the next one.
func OnDemand(s *Scene) capture.RenderTarget {
	return onDemand{s}
}

type onDemand struct{ *Scene }

func (o onDemand) RenderNow() error { return o.Render() }

// gain returns the brightness multiplier for st.
func gain(st state) float64 {
	ev := st.postExposure
	if st.physicalSet {
		p := st.physical
		ev += p.ExposureBias
		// Relative to ISO 400, 1/125 s, f/2.8.
		if p.ISO > 0 {
			ev += math.Log2(p.ISO / 400)
		}
		if p.ShutterSpeed > 0 {
			ev += math.Log2(125 / p.ShutterSpeed)
		}
		if p.Aperture > 0 {
			ev += 2 * math.Log2(2.8/p.Aperture)
		}
	}
	return math.Exp2(ev)
}

func (s *Scene) rasterize(st state) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	g := gain(st)
	// Narrower field of view shows a smaller part of the pattern.
	scale := math.Tan(st.fov*math.Pi/360) / math.Tan(referenceFOV*math.Pi/360)
	shift := float64(st.frame) * 0.01
	half := float64(s.height) / 2
	rng := rand.New(rand.NewSource(int64(st.frame)))
	noise := st.grain * 64

	for y := 0; y < s.height; y++ {
		v := (float64(y) - half) / half * scale
		for x := 0; x < s.width; x++ {
			u := (float64(x)-float64(s.width)/2)/half*scale + shift
			check := (int(math.Floor(u*4)) + int(math.Floor(v*4))) & 1
			base := 0.25 + 0.5*float64(check)
			r := base * (0.6 + 0.4*(v+1)/2)
			gr := base
			b := base * (0.6 + 0.4*(1-(v+1)/2))
			var n float64
			if noise > 0 {
				n = (rng.Float64()*2 - 1) * noise
			}
			img.SetRGBA(x, y, color.RGBA{
				R: channel(r*g*255 + n),
				G: channel(gr*g*255 + n),
				B: channel(b*g*255 + n),
				A: 255,
			})
		}
	}
	debug.Trace("sim: rasterized frame %d (%dx%d, gain %.3f)", st.frame, s.width, s.height, g)
	return img
}

func channel(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
