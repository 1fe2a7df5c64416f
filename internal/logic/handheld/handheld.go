package handheld

import (
	"fmt"
	"math"
	"time"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/logic/adjust"
	"github.com/cjeanneret/HandCam/internal/logic/capture"
	"github.com/cjeanneret/HandCam/internal/logic/effects"
	"github.com/cjeanneret/HandCam/internal/logic/gallery"
	"github.com/cjeanneret/HandCam/internal/logic/geometry"
	"github.com/cjeanneret/HandCam/internal/logic/params"
	"github.com/cjeanneret/HandCam/internal/logic/readout"
)

// Controls is the inbound interface used by hand/grab input.
type Controls interface {
	NextSetting()
	PreviousSetting()
	IncrementSetting(continuous bool)
	DecrementSetting(continuous bool)
	TakePhoto()
	ToggleDisplayVisible()
}

// ReadoutSink shows the on-screen text.
type ReadoutSink interface {
	ShowReadout(text string)
}

// Options configure a Camera.
type Options struct {
	Profile         params.Profile
	Specs           map[params.Field]params.Spec // nil uses params.DefaultSpecs
	Mode            effects.Mode
	SensorHeightMm  float64 // 0 uses full frame
	GalleryCapacity int
	Policy          capture.FeedbackPolicy
	PrintOffset     *float64 // nil uses capture.DefaultPrintOffset
}

// Collaborators are resolved once at construction. Any of them may be nil.
type Collaborators struct {
	Lens     effects.Lens
	Physical effects.PhysicalCamera
	Profile  effects.Profile
	Target   capture.RenderTarget
	Pose     capture.Pose
	Shutter  capture.ShutterSound
	Printer  capture.PhotoPrinter
	Readout  ReadoutSink
}

// Camera is the handheld camera subsystem. It is owned by one control
// goroutine and advanced once per frame with Update and FrameRendered.
type Camera struct {
	store    *params.Store
	ctrl     *adjust.Controller
	mapper   *effects.Mapper
	sched    *capture.Scheduler
	pipeline *capture.Pipeline
	display  *readout.Display
	sink     ReadoutSink

	elapsed     time.Duration
	diagnostics []error // from the last effect refresh
	lastText    string
	pushed      bool
}

var _ Controls = (*Camera)(nil)

// New builds the subsystem and applies the initial effect configuration.
func New(opts Options, c Collaborators) (*Camera, error) {
	store, err := params.NewStore(opts.Profile, opts.Specs)
	if err != nil {
		return nil, fmt.Errorf("parameter store: %w", err)
	}

	sensor := opts.SensorHeightMm
	if sensor == 0 {
		sensor = geometry.FullFrameSensorHeightMm
	}
	fov, err := geometry.NewFOVCalculator(sensor)
	if err != nil {
		return nil, fmt.Errorf("create FOV calculator: %w", err)
	}

	printOffset := capture.DefaultPrintOffset
	if opts.PrintOffset != nil {
		if *opts.PrintOffset < 0 || math.IsNaN(*opts.PrintOffset) {
			return nil, fmt.Errorf("print offset must be >= 0, got %g", *opts.PrintOffset)
		}
		printOffset = *opts.PrintOffset
	}

	sched := &capture.Scheduler{}
	ctrl := adjust.NewController(store)
	cam := &Camera{
		store: store,
		ctrl:  ctrl,
		mapper: effects.NewMapper(effects.New(opts.Mode, fov), effects.Targets{
			Lens:     c.Lens,
			Physical: c.Physical,
			Profile:  c.Profile,
		}),
		sched: sched,
		pipeline: capture.NewPipeline(capture.Deps{
			Target:  c.Target,
			Pose:    c.Pose,
			Shutter: c.Shutter,
			Printer: c.Printer,
		}, gallery.New(opts.GalleryCapacity), sched,
			capture.WithPolicy(opts.Policy),
			capture.WithPrintOffset(printOffset),
		),
		display: readout.New(store, ctrl),
		sink:    c.Readout,
	}

	store.OnChange(func(f params.Field, v float64) {
		cam.refreshEffects()
		debug.Adjust(f.String(), v)
		cam.pushReadout()
	})
	cam.refreshEffects()
	cam.pushReadout()
	return cam, nil
}

// Update records the elapsed time of the current frame. Continuous
// adjustments made during this frame are scaled by it.
func (c *Camera) Update(elapsed time.Duration) {
	if elapsed < 0 {
		elapsed = 0
	}
	c.elapsed = elapsed
}

// FrameRendered must be called once the frame has been rendered; it runs
// deferred captures. It returns how many ran.
func (c *Camera) FrameRendered() int {
	return c.sched.FrameRendered()
}

// NextSetting cycles the active setting forward.
func (c *Camera) NextSetting() {
	s := c.ctrl.Next()
	debug.Live("setting -> %s", s)
	c.pushReadout()
}

// PreviousSetting cycles the active setting backward.
func (c *Camera) PreviousSetting() {
	s := c.ctrl.Previous()
	debug.Live("setting -> %s", s)
	c.pushReadout()
}

// IncrementSetting raises the active setting. Continuous calls are meant
// to be made every frame while a control is held.
func (c *Camera) IncrementSetting(continuous bool) {
	c.ctrl.Increment(continuous, c.elapsed)
}

// DecrementSetting lowers the active setting; see IncrementSetting.
func (c *Camera) DecrementSetting(continuous bool) {
	c.ctrl.Decrement(continuous, c.elapsed)
}

// TakePhoto captures a photo. Failures are logged; use Capture for the result.
func (c *Camera) TakePhoto() {
	_, _ = c.Capture()
}

// Capture takes a photo and reports the outcome.
func (c *Camera) Capture() (capture.Outcome, error) {
	return c.pipeline.Capture()
}

// ToggleDisplayVisible shows or hides the readout.
func (c *Camera) ToggleDisplayVisible() {
	c.display.ToggleVisible()
	c.pushReadout()
}

// OnCapture registers a callback for every capture result, including deferred ones.
func (c *Camera) OnCapture(fn func(capture.Outcome, error)) {
	c.pipeline.OnComplete = fn
}

// SetRenderTarget rebinds the frame buffer; nil unbinds it.
func (c *Camera) SetRenderTarget(t capture.RenderTarget) {
	c.pipeline.SetTarget(t)
}

// Active returns the selected setting.
func (c *Camera) Active() adjust.Setting {
	return c.ctrl.Active()
}

// Value returns the current value of field f.
func (c *Camera) Value(f params.Field) float64 {
	return c.store.Get(f)
}

// Set writes a parameter directly (clamped), e.g. from configuration UIs.
func (c *Camera) Set(f params.Field, v float64) float64 {
	return c.store.Set(f, v)
}

// Parameters returns a snapshot of all parameter values.
func (c *Camera) Parameters() params.Snapshot {
	return c.store.Snapshot()
}

// Effects returns the current effect configuration.
func (c *Camera) Effects() effects.Configuration {
	return c.mapper.Current()
}

// Gallery returns the photo gallery.
func (c *Camera) Gallery() *gallery.Gallery {
	return c.pipeline.Gallery()
}

// Describe formats the value of setting s.
func (c *Camera) Describe(s adjust.Setting) string {
	return c.display.Describe(s)
}

// ReadoutText returns the current readout, "" when hidden.
func (c *Camera) ReadoutText() string {
	return c.display.Text()
}

// DisplayVisible reports whether the readout is shown.
func (c *Camera) DisplayVisible() bool {
	return c.display.Visible()
}

// PendingCaptures returns the number of captures waiting for a rendered frame.
func (c *Camera) PendingCaptures() int {
	return c.sched.Pending()
}

// Diagnostics returns the missing collaborators reported by the last
// effect refresh. Empty when every effect was applied.
func (c *Camera) Diagnostics() []error {
	return append([]error(nil), c.diagnostics...)
}

func (c *Camera) refreshEffects() {
	_, c.diagnostics = c.mapper.Refresh(c.store.Snapshot())
}

func (c *Camera) pushReadout() {
	text := c.display.Text()
	if c.pushed && text == c.lastText {
		return
	}
	c.lastText = text
	c.pushed = true
	if c.sink != nil {
		c.sink.ShowReadout(text)
	}
}
