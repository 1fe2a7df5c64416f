package effects

import (
	"errors"
	"fmt"
)

// Mode selects how camera parameters reach the renderer.
type Mode int

const (
	// Physical writes parameters straight to a camera with a native exposure model.
	Physical Mode = iota
	// PostProcessing emulates the parameters with depth of field, film grain
	// and color adjustment effects.
	PostProcessing
)

func (m Mode) String() string {
	if m == PostProcessing {
		return "postprocessing"
	}
	return "physical"
}

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "physical", "":
		return Physical, nil
	case "postprocessing":
		return PostProcessing, nil
	default:
		return Physical, fmt.Errorf("unknown camera mode %q (want physical or postprocessing)", s)
	}
}

// PhysicalSettings are the native exposure properties of a physical camera.
type PhysicalSettings struct {
	ISO           float64
	ShutterSpeed  float64
	Aperture      float64
	FocalLength   float64
	FocusDistance float64
	ExposureBias  float64
}

// DepthOfFieldMode mirrors the two blur models a depth of field effect offers.
type DepthOfFieldMode int

const (
	Bokeh DepthOfFieldMode = iota
	Gaussian
)

// DepthOfFieldSettings drive a bokeh depth of field effect.
type DepthOfFieldSettings struct {
	Mode          DepthOfFieldMode
	FocusDistance float64
	Aperture      float64
	FocalLength   float64
}

// Configuration is the rendering target state derived from camera parameters.
// It is never mutated independently; see Strategy.Derive.
type Configuration struct {
	Mode           Mode
	FieldOfView    float64 // degrees
	FocalLength    float64 // millimeters, derived from FieldOfView
	Physical       PhysicalSettings
	DepthOfField   DepthOfFieldSettings
	GrainIntensity float64 // 0..1
	PostExposure   float64 // stops
}

// Lens is the optical part of the rendering camera.
type Lens interface {
	FieldOfView() float64
	SetFieldOfView(deg float64)
}

// PhysicalCamera accepts native exposure properties.
type PhysicalCamera interface {
	SetPhysical(PhysicalSettings)
}

// DepthOfField is a depth of field effect inside a post-processing profile.
type DepthOfField interface {
	SetDepthOfField(DepthOfFieldSettings)
}

// FilmGrain is a grain/noise effect.
type FilmGrain interface {
	SetIntensity(v float64)
}

// ColorAdjustments carries the post exposure compensation.
type ColorAdjustments interface {
	SetPostExposure(stops float64)
}

// Profile is a post-processing volume. Each lookup reports false when the
// effect is not part of the profile.
type Profile interface {
	DepthOfField() (DepthOfField, bool)
	FilmGrain() (FilmGrain, bool)
	ColorAdjustments() (ColorAdjustments, bool)
}

// Targets are the rendering collaborators, resolved once. Nil means absent.
type Targets struct {
	Lens     Lens
	Physical PhysicalCamera
	Profile  Profile
}

// Component names used in MissingError.
const (
	ComponentLens             = "camera"
	ComponentPhysicalCamera   = "physical camera"
	ComponentProfile          = "post-processing profile"
	ComponentDepthOfField     = "DepthOfField"
	ComponentFilmGrain        = "FilmGrain"
	ComponentColorAdjustments = "ColorAdjustments"
)

// ErrMissingCollaborator is matched by every MissingError.
var ErrMissingCollaborator = errors.New("collaborator not found")

// MissingError reports a rendering collaborator that was not available.
// The mapping step that needed it was skipped.
type MissingError struct {
	Component string
}

func (e *MissingError) Error() string {
	return e.Component + " not found"
}

func (e *MissingError) Unwrap() error {
	return ErrMissingCollaborator
}

func missing(component string) error {
	return &MissingError{Component: component}
}
