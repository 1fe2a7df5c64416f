package params

import (
	"fmt"
	"math"
)

// Field identifies one camera parameter.
type Field int

const (
	Zoom          Field = iota // field of view (deg) or focal length (mm), depending on Profile
	Aperture                   // f-number
	FocusDistance              // meters
	ExposureBias               // stops
	ISO                        // sensor sensitivity
	ShutterSpeed               // 1/x seconds
	fieldCount
)

// Fields lists every field in declaration order.
func Fields() []Field {
	out := make([]Field, fieldCount)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

func (f Field) String() string {
	switch f {
	case Zoom:
		return "zoom"
	case Aperture:
		return "aperture"
	case FocusDistance:
		return "focus_distance"
	case ExposureBias:
		return "exposure_bias"
	case ISO:
		return "iso"
	case ShutterSpeed:
		return "shutter_speed"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Valid reports whether f names a known field.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

// Profile selects how Zoom is expressed and which field drives exposure.
type Profile int

const (
	// ProfileFieldOfView expresses Zoom in degrees and exposure as a bias in stops.
	ProfileFieldOfView Profile = iota
	// ProfileFocalLength expresses Zoom in millimeters and exposure through ISO and shutter speed.
	ProfileFocalLength
)

func (p Profile) String() string {
	if p == ProfileFocalLength {
		return "focal"
	}
	return "fov"
}

// ParseProfile converts a config string ("fov" or "focal") into a Profile.
func ParseProfile(s string) (Profile, error) {
	switch s {
	case "fov", "":
		return ProfileFieldOfView, nil
	case "focal":
		return ProfileFocalLength, nil
	default:
		return ProfileFieldOfView, fmt.Errorf("unknown parameter profile %q (want fov or focal)", s)
	}
}

// Range declares the valid interval of a field and its per-press step.
type Range struct {
	Min  float64
	Max  float64
	Step float64
}

// Clamp returns v limited to [Min, Max].
func (r Range) Clamp(v float64) float64 {
	return math.Min(math.Max(v, r.Min), r.Max)
}

// Contains reports whether v lies within [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Spec describes a field's range and initial value.
type Spec struct {
	Range
	Initial float64
}

// DefaultSpecs returns the stock ranges for a profile.
//
//	fov:   zoom 1-100 deg, aperture f/1-f/32, exposure bias -2..+2
//	focal: zoom 24-200 mm, aperture f/1.4-f/16, ISO 100-6400, shutter 1/1-1/1000
func DefaultSpecs(p Profile) map[Field]Spec {
	specs := map[Field]Spec{
		FocusDistance: {Range{0.5, 100, 0.1}, 2.0},
		ExposureBias:  {Range{-2, 2, 0.2}, 0},
		ISO:           {Range{100, 6400, 100}, 400},
		ShutterSpeed:  {Range{1, 1000, 5}, 125},
	}
	if p == ProfileFocalLength {
		specs[Zoom] = Spec{Range{24, 200, 5}, 50}
		specs[Aperture] = Spec{Range{1.4, 16, 0.5}, 2.8}
	} else {
		specs[Zoom] = Spec{Range{1, 100, 5}, 60}
		specs[Aperture] = Spec{Range{1, 32, 0.5}, 2.8}
	}
	return specs
}

// Snapshot is an immutable copy of every field value.
type Snapshot struct {
	Profile       Profile
	Zoom          float64
	Aperture      float64
	FocusDistance float64
	ExposureBias  float64
	ISO           float64
	ShutterSpeed  float64
}

// Get returns the value of field f from the snapshot.
func (s Snapshot) Get(f Field) float64 {
	switch f {
	case Zoom:
		return s.Zoom
	case Aperture:
		return s.Aperture
	case FocusDistance:
		return s.FocusDistance
	case ExposureBias:
		return s.ExposureBias
	case ISO:
		return s.ISO
	case ShutterSpeed:
		return s.ShutterSpeed
	}
	return 0
}
