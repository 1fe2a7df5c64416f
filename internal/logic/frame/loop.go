package frame

import (
	"context"
	"errors"
	"time"

	"github.com/cjeanneret/HandCam/internal/debug"
)

// ErrStopped is returned by Do once the loop has exited.
var ErrStopped = errors.New("frame loop stopped")

// Camera is the per-frame part of the camera subsystem.
type Camera interface {
	Update(elapsed time.Duration)
	FrameRendered() int
}

// Source is polled once per frame for input (buttons, remotes).
// Poll runs on the loop goroutine and may call into the camera.
type Source interface {
	Poll(elapsed time.Duration)
}

// Renderer draws one frame.
type Renderer interface {
	Render() error
}

// Loop owns the camera: every camera call happens on the goroutine
// running Run. Other goroutines reach the camera through Do.
//
// Each tick runs, in order: queued commands, Camera.Update, sources,
// Renderer.Render and Camera.FrameRendered.
type Loop struct {
	cam      Camera
	renderer Renderer
	sources  []Source
	interval time.Duration
	now      func() time.Time

	cmds chan command
	done chan struct{}
	last time.Time
	tick uint64
}

type command struct {
	fn   func()
	done chan struct{}
}

// Option configures a Loop.
type Option func(*Loop)

// WithRenderer sets the renderer drawn each frame.
func WithRenderer(r Renderer) Option {
	return func(l *Loop) { l.renderer = r }
}

// WithSources adds input sources polled each frame.
func WithSources(s ...Source) Option {
	return func(l *Loop) { l.sources = append(l.sources, s...) }
}

// WithClock replaces time.Now for frame timing.
func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// NewLoop creates a loop ticking fps times per second. fps below 1 is treated as 1.
func NewLoop(cam Camera, fps int, opts ...Option) *Loop {
	if fps < 1 {
		fps = 1
	}
	l := &Loop{
		cam:      cam,
		interval: time.Second / time.Duration(fps),
		now:      time.Now,
		cmds:     make(chan command, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Interval returns the target frame duration.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Frames returns how many frames have been stepped. Only call it from the loop goroutine.
func (l *Loop) Frames() uint64 {
	return l.tick
}

// Run ticks until ctx is cancelled. It must be called at most once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	debug.Info("frame loop started (%v per frame)", l.interval)
	l.last = l.now()
	for {
		select {
		case <-ctx.Done():
			debug.Info("frame loop stopped after %d frames", l.tick)
			return ctx.Err()
		case <-ticker.C:
			now := l.now()
			dt := now.Sub(l.last)
			l.last = now
			l.Step(dt)
		}
	}
}

// Step runs one frame with the given elapsed time. Run calls it on every
// tick; tests call it directly.
func (l *Loop) Step(elapsed time.Duration) {
	l.tick++
	l.drain()
	// Sources see this frame's elapsed time through the camera.
	l.cam.Update(elapsed)
	for _, s := range l.sources {
		s.Poll(elapsed)
	}
	if l.renderer != nil {
		if err := l.renderer.Render(); err != nil {
			debug.Warn("frame %d: render failed: %v", l.tick, err)
		}
	}
	if n := l.cam.FrameRendered(); n > 0 {
		debug.Verbose("frame %d: ran %d deferred capture(s)", l.tick, n)
	}
	debug.Trace("frame %d: dt=%v", l.tick, elapsed)
}

func (l *Loop) drain() {
	for {
		select {
		case c := <-l.cmds:
			c.fn()
			close(c.done)
		default:
			return
		}
	}
}

// Do runs fn on the loop goroutine before the next frame and waits for it.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case l.cmds <- c:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-l.done:
		// The loop may have run the command on its last step.
		select {
		case <-c.done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
