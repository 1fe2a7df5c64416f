package params

import (
	"fmt"
	"math"
)

// Listener is called synchronously after a field value is written.
type Listener func(f Field, value float64)

// Store holds the current camera parameter values.
// Every write clamps to the field's range, so no value outside [Min, Max]
// is ever observable. Store is owned by a single control goroutine.
type Store struct {
	profile   Profile
	ranges    [fieldCount]Range
	values    [fieldCount]float64
	listeners []Listener
}

// NewStore creates a store from per-field specs. Fields missing from specs
// fall back to DefaultSpecs(profile). Initial values are clamped.
func NewStore(profile Profile, specs map[Field]Spec) (*Store, error) {
	defaults := DefaultSpecs(profile)
	s := &Store{profile: profile}
	for _, f := range Fields() {
		spec, ok := specs[f]
		if !ok {
			spec = defaults[f]
		}
		if math.IsNaN(spec.Min) || math.IsNaN(spec.Max) || spec.Min > spec.Max {
			return nil, fmt.Errorf("%s: invalid range [%g, %g]", f, spec.Min, spec.Max)
		}
		if spec.Step < 0 || math.IsNaN(spec.Step) {
			return nil, fmt.Errorf("%s: step must be >= 0, got %g", f, spec.Step)
		}
		s.ranges[f] = spec.Range
		initial := spec.Initial
		if math.IsNaN(initial) {
			initial = spec.Min
		}
		s.values[f] = spec.Range.Clamp(initial)
	}
	return s, nil
}

// Profile returns the configured parameter profile.
func (s *Store) Profile() Profile {
	return s.profile
}

// OnChange registers a listener invoked after every successful Set.
func (s *Store) OnChange(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Get returns the current value of f.
func (s *Store) Get(f Field) float64 {
	if !f.Valid() {
		return 0
	}
	return s.values[f]
}

// Range returns the declared range of f.
func (s *Store) Range(f Field) Range {
	if !f.Valid() {
		return Range{}
	}
	return s.ranges[f]
}

// Set clamps value into f's range, stores it and notifies listeners.
// NaN and unknown fields are ignored. It returns the stored value.
func (s *Store) Set(f Field, value float64) float64 {
	if !f.Valid() {
		return 0
	}
	if math.IsNaN(value) {
		return s.values[f]
	}
	v := s.ranges[f].Clamp(value)
	s.values[f] = v
	for _, l := range s.listeners {
		l(f, v)
	}
	return v
}

// Nudge adds delta to f's current value (clamped) and returns the result.
func (s *Store) Nudge(f Field, delta float64) float64 {
	return s.Set(f, s.Get(f)+delta)
}

// Snapshot returns a copy of all current values.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Profile:       s.profile,
		Zoom:          s.values[Zoom],
		Aperture:      s.values[Aperture],
		FocusDistance: s.values[FocusDistance],
		ExposureBias:  s.values[ExposureBias],
		ISO:           s.values[ISO],
		ShutterSpeed:  s.values[ShutterSpeed],
	}
}
