package effects

import (
	"strings"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

// Mapper keeps the renderer in sync with the parameter store.
// Refresh is called after every parameter change.
type Mapper struct {
	strategy Strategy
	targets  Targets
	current  Configuration
	lastDiag string
}

// NewMapper binds a strategy to its rendering targets.
func NewMapper(s Strategy, t Targets) *Mapper {
	return &Mapper{strategy: s, targets: t}
}

// Mode returns the selected strategy's mode.
func (m *Mapper) Mode() Mode {
	return m.strategy.Mode()
}

// Current returns the configuration produced by the last Refresh.
func (m *Mapper) Current() Configuration {
	return m.current
}

// Refresh derives the configuration for p and pushes it to the targets.
// Missing collaborators are returned and logged (once per distinct set),
// the remaining steps are still applied.
func (m *Mapper) Refresh(p params.Snapshot) (Configuration, []error) {
	c := m.strategy.Derive(p)
	errs := m.strategy.Apply(c, m.targets)
	m.current = c

	diag := joinErrors(errs)
	if diag != m.lastDiag {
		for _, err := range errs {
			debug.Warn("effects (%s): %v", m.strategy.Mode(), err)
		}
		m.lastDiag = diag
	}
	debug.Verbose("effects: fov=%.2f focal=%.1fmm grain=%.3f post_exposure=%.3f",
		c.FieldOfView, c.FocalLength, c.GrainIntensity, c.PostExposure)
	return c, errs
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, err := range errs {
		parts[i] = err.Error()
	}
	return strings.Join(parts, ";")
}
