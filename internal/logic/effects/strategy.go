package effects

import (
	"math"

	"github.com/cjeanneret/HandCam/internal/logic/geometry"
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// ISO bounds used to normalize grain intensity.
const (
	MinISO = 100.0
	MaxISO = 6400.0
)

// Strategy derives and applies an effect configuration.
// Derive must be a pure function of its input.
type Strategy interface {
	Mode() Mode
	Derive(p params.Snapshot) Configuration
	Apply(c Configuration, t Targets) []error
}

// New returns the strategy for mode.
func New(mode Mode, fov *geometry.FOVCalculator) Strategy {
	if mode == PostProcessing {
		return &postProcessing{fov: fov}
	}
	return &physical{fov: fov}
}

// GrainIntensity maps ISO linearly onto [0, 1] across the supported range.
func GrainIntensity(iso float64) float64 {
	return clamp01((iso - MinISO) / (MaxISO - MinISO))
}

// ExposureCompensation approximates an exposure value from aperture,
// shutter speed (1/x s) and ISO: log10((N² / shutter) × (ISO / 100)).
func ExposureCompensation(aperture, shutterSpeed, iso float64) float64 {
	v := (aperture * aperture / shutterSpeed) * (iso / 100.0)
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Log10(v)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// optics resolves the field of view and focal length for a snapshot.
func optics(fov *geometry.FOVCalculator, p params.Snapshot) (fovDeg, focalMm float64) {
	if p.Profile == params.ProfileFocalLength {
		return fov.FieldOfView(p.Zoom), p.Zoom
	}
	return p.Zoom, fov.FocalLength(p.Zoom)
}

// physical writes parameters straight to the camera.
type physical struct {
	fov *geometry.FOVCalculator
}

func (s *physical) Mode() Mode { return Physical }

func (s *physical) Derive(p params.Snapshot) Configuration {
	fovDeg, focal := optics(s.fov, p)
	return Configuration{
		Mode:        Physical,
		FieldOfView: fovDeg,
		FocalLength: focal,
		Physical: PhysicalSettings{
			ISO:           p.ISO,
			ShutterSpeed:  p.ShutterSpeed,
			Aperture:      p.Aperture,
			FocalLength:   focal,
			FocusDistance: p.FocusDistance,
			ExposureBias:  p.ExposureBias,
		},
	}
}

func (s *physical) Apply(c Configuration, t Targets) []error {
	var errs []error
	if t.Lens != nil {
		t.Lens.SetFieldOfView(c.FieldOfView)
	} else {
		errs = append(errs, missing(ComponentLens))
	}
	if t.Physical != nil {
		t.Physical.SetPhysical(c.Physical)
	} else {
		errs = append(errs, missing(ComponentPhysicalCamera))
	}
	return errs
}

// postProcessing emulates optics with post effects when no native
// physical camera model is available.
type postProcessing struct {
	fov *geometry.FOVCalculator
}

func (s *postProcessing) Mode() Mode { return PostProcessing }

func (s *postProcessing) Derive(p params.Snapshot) Configuration {
	fovDeg, focal := optics(s.fov, p)
	c := Configuration{
		Mode:        PostProcessing,
		FieldOfView: fovDeg,
		FocalLength: focal,
		DepthOfField: DepthOfFieldSettings{
			Mode:          Bokeh,
			FocusDistance: p.FocusDistance,
			Aperture:      p.Aperture,
			FocalLength:   focal,
		},
		GrainIntensity: GrainIntensity(p.ISO),
	}
	if p.Profile == params.ProfileFocalLength {
		c.PostExposure = ExposureCompensation(p.Aperture, p.ShutterSpeed, p.ISO)
	} else {
		c.PostExposure = p.ExposureBias
	}
	return c
}

func (s *postProcessing) Apply(c Configuration, t Targets) []error {
	var errs []error

	dof := c.DepthOfField
	if t.Lens != nil {
		t.Lens.SetFieldOfView(c.FieldOfView)
		// Quote the focal length the lens actually renders with so the
		// bokeh scale matches the frame.
		dof.FocalLength = s.fov.FocalLength(t.Lens.FieldOfView())
	} else {
		errs = append(errs, missing(ComponentLens))
	}

	if t.Profile == nil {
		return append(errs, missing(ComponentProfile))
	}
	if d, ok := t.Profile.DepthOfField(); ok {
		d.SetDepthOfField(dof)
	} else {
		errs = append(errs, missing(ComponentDepthOfField))
	}
	if g, ok := t.Profile.FilmGrain(); ok {
		g.SetIntensity(c.GrainIntensity)
	} else {
		errs = append(errs, missing(ComponentFilmGrain))
	}
	if ca, ok := t.Profile.ColorAdjustments(); ok {
		ca.SetPostExposure(c.PostExposure)
	} else {
		errs = append(errs, missing(ComponentColorAdjustments))
	}
	return errs
}
