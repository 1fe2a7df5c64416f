package capture

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/logic/gallery"
)

// DefaultPrintOffset is how far in front of the camera a printed photo appears.
const DefaultPrintOffset = 0.5

// ErrNoRenderTarget is returned when the camera has no frame buffer bound.
var ErrNoRenderTarget = errors.New("no render target bound to camera")

// RenderTarget is the frame buffer the camera renders into.
type RenderTarget interface {
	// ReadPixels copies the last rendered frame.
	ReadPixels() (image.Image, error)
}

// OnDemandRenderer is implemented by targets that can render the current
// frame synchronously. Targets without it are read after the next frame.
type OnDemandRenderer interface {
	RenderNow() error
}

// ShutterSound plays the shutter cue.
type ShutterSound interface {
	PlayShutter()
}

// PhotoPrinter spawns a physical "printed photo" showing img. The printer
// must take its own copy of the pixels if it keeps them (img.Clone).
type PhotoPrinter interface {
	SpawnPhoto(img *gallery.CapturedImage, pos mgl64.Vec3, rot mgl64.Quat)
}

// FeedbackPolicy decides whether feedback fires when the gallery is full.
type FeedbackPolicy int

const (
	// FeedbackAlways fires the shutter cue and prints the photo for every
	// successful read-back, stored or not.
	FeedbackAlways FeedbackPolicy = iota
	// FeedbackOnStore fires feedback only when the image was stored.
	FeedbackOnStore
)

// ParseFeedbackPolicy converts a config string ("always" or "on_store").
func ParseFeedbackPolicy(s string) (FeedbackPolicy, error) {
	switch s {
	case "always", "":
		return FeedbackAlways, nil
	case "on_store":
		return FeedbackOnStore, nil
	default:
		return FeedbackAlways, fmt.Errorf("unknown feedback policy %q (want always or on_store)", s)
	}
}

func (p FeedbackPolicy) String() string {
	if p == FeedbackOnStore {
		return "on_store"
	}
	return "always"
}

// Outcome describes one capture attempt.
type Outcome struct {
	Image    *gallery.CapturedImage
	Slot     int  // gallery slot, -1 when not stored
	Stored   bool // false when the gallery was full
	Deferred bool // read-back postponed until the next rendered frame
	Feedback bool // shutter cue and print fired
}

// Deps are the collaborators of a Pipeline. Every field may be nil.
type Deps struct {
	Target  RenderTarget
	Pose    Pose
	Shutter ShutterSound
	Printer PhotoPrinter
}

// Pipeline captures rendered frames into a gallery.
// There is no built-in rate limit; callers throttle.
type Pipeline struct {
	deps        Deps
	gallery     *gallery.Gallery
	scheduler   *Scheduler
	policy      FeedbackPolicy
	printOffset float64
	now         func() time.Time
	seq         uint64

	// OnComplete, if set, receives the result of every capture attempt,
	// including deferred ones once they run.
	OnComplete func(Outcome, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPolicy sets the gallery-full feedback policy.
func WithPolicy(p FeedbackPolicy) Option {
	return func(pl *Pipeline) { pl.policy = p }
}

// WithPrintOffset sets the printed photo distance in front of the camera.
func WithPrintOffset(d float64) Option {
	return func(pl *Pipeline) { pl.printOffset = d }
}

// WithClock replaces time.Now for capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(pl *Pipeline) { pl.now = now }
}

// NewPipeline creates a capture pipeline storing into g. s receives deferred
// captures and must be flushed after each rendered frame.
func NewPipeline(deps Deps, g *gallery.Gallery, s *Scheduler, opts ...Option) *Pipeline {
	p := &Pipeline{
		deps:        deps,
		gallery:     g,
		scheduler:   s,
		printOffset: DefaultPrintOffset,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetTarget rebinds the render target; nil unbinds it.
func (p *Pipeline) SetTarget(t RenderTarget) {
	p.deps.Target = t
}

// Gallery returns the gallery captures are stored into.
func (p *Pipeline) Gallery() *gallery.Gallery {
	return p.gallery
}

// Policy returns the configured feedback policy.
func (p *Pipeline) Policy() FeedbackPolicy {
	return p.policy
}

// Capture takes a photo of the current frame.
//
// Targets implementing OnDemandRenderer are rendered and read immediately.
// Other targets are read after the next rendered frame: the returned
// Outcome has Deferred set and the result is reported through OnComplete.
// Without a render target, ErrNoRenderTarget is returned and no feedback fires.
func (p *Pipeline) Capture() (Outcome, error) {
	target := p.deps.Target
	if target == nil {
		return p.finish(Outcome{Slot: -1}, ErrNoRenderTarget)
	}

	r, ok := target.(OnDemandRenderer)
	if !ok {
		debug.Verbose("capture: target cannot render on demand, deferring to next frame")
		p.scheduler.AfterRender(func() {
			// Re-resolve: the target may have been unbound meanwhile.
			if p.deps.Target == nil {
				p.finish(Outcome{Slot: -1}, ErrNoRenderTarget)
				return
			}
			p.finish(p.readAndCommit(p.deps.Target))
		})
		return Outcome{Slot: -1, Deferred: true}, nil
	}

	if err := r.RenderNow(); err != nil {
		return p.finish(Outcome{Slot: -1}, fmt.Errorf("render frame: %w", err))
	}
	return p.finish(p.readAndCommit(target))
}

func (p *Pipeline) finish(o Outcome, err error) (Outcome, error) {
	if err != nil {
		debug.Warn("capture failed: %v", err)
	}
	if p.OnComplete != nil {
		p.OnComplete(o, err)
	}
	return o, err
}

func (p *Pipeline) readAndCommit(target RenderTarget) (Outcome, error) {
	pixels, err := target.ReadPixels()
	if err != nil {
		return Outcome{Slot: -1}, fmt.Errorf("read pixels: %w", err)
	}
	if pixels == nil {
		return Outcome{Slot: -1}, fmt.Errorf("read pixels: %w", ErrNoRenderTarget)
	}

	p.seq++
	img := gallery.NewCapturedImage(p.seq, p.now(), pixels)
	slot, stored := p.gallery.Store(img)
	out := Outcome{Image: img, Slot: slot, Stored: stored}
	if !stored {
		debug.Live("capture: gallery full (%d slots), photo #%d not kept", p.gallery.Capacity(), img.Seq)
	}
	debug.Shot(img.Seq, slot)

	if stored || p.policy == FeedbackAlways {
		p.print(img)
		p.playShutter()
		out.Feedback = true
	}
	return out, nil
}

func (p *Pipeline) print(img *gallery.CapturedImage) {
	if p.deps.Printer == nil {
		debug.Warn("capture: photo printer not assigned")
		return
	}
	pose := p.deps.Pose
	if pose == nil {
		pose = StaticPose{Fwd: worldForward}
	}
	pos, rot := PrintPlacement(pose, p.printOffset)
	p.deps.Printer.SpawnPhoto(img, pos, rot)
}

func (p *Pipeline) playShutter() {
	if p.deps.Shutter == nil {
		debug.Warn("capture: shutter sound not found")
		return
	}
	p.deps.Shutter.PlayShutter()
}
