// Package shutter mirrors the camera's shutter cue onto a real camera's
// wired remote port.
package shutter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/hw/gpio"
)

// Config describes the remote port wiring. Lines are active LOW.
// FocusPin 0 means the remote has no focus line.
type Config struct {
	ShutterPin int
	FocusPin   int
	FocusDelay time.Duration // time for autofocus before the shutter fires
	Hold       time.Duration // how long the shutter line is held
}

// Remote triggers a camera through GPIO:
// 1. FOCUS to LOW, wait for autofocus
// 2. SHUTTER to LOW, hold
// 3. SHUTTER and FOCUS back to HIGH
type Remote struct {
	gpio gpio.Driver
	cfg  Config

	busy atomic.Bool
	wg   sync.WaitGroup
}

// NewRemote configures the pins as outputs and releases both lines.
func NewRemote(g gpio.Driver, cfg Config) (*Remote, error) {
	for _, pin := range []int{cfg.ShutterPin, cfg.FocusPin} {
		if pin == 0 {
			continue
		}
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, err
		}
		if err := g.WritePin(pin, gpio.High); err != nil {
			return nil, err
		}
	}
	return &Remote{gpio: g, cfg: cfg}, nil
}

// Shoot runs the trigger sequence and blocks until the lines are released.
func (r *Remote) Shoot() error {
	debug.Printf("Remote: triggering shot (focus=%d, shutter=%d)", r.cfg.FocusPin, r.cfg.ShutterPin)

	if r.cfg.FocusPin != 0 {
		if err := r.gpio.WritePin(r.cfg.FocusPin, gpio.Low); err != nil {
			return err
		}
		time.Sleep(r.cfg.FocusDelay)
	}

	if err := r.gpio.WritePin(r.cfg.ShutterPin, gpio.Low); err != nil {
		r.releaseFocus()
		return err
	}
	time.Sleep(r.cfg.Hold)

	if err := r.gpio.WritePin(r.cfg.ShutterPin, gpio.High); err != nil {
		r.releaseFocus()
		return err
	}
	return r.releaseFocus()
}

func (r *Remote) releaseFocus() error {
	if r.cfg.FocusPin == 0 {
		return nil
	}
	return r.gpio.WritePin(r.cfg.FocusPin, gpio.High)
}

// PlayShutter fires the remote without blocking the caller. A cue that
// arrives while a shot is still in progress is dropped.
func (r *Remote) PlayShutter() {
	if !r.busy.CompareAndSwap(false, true) {
		debug.Verbose("Remote: shot in progress, cue dropped")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.busy.Store(false)
		if err := r.Shoot(); err != nil {
			debug.Error(err)
		}
	}()
}

// Wait blocks until a shot started by PlayShutter has finished.
func (r *Remote) Wait() {
	r.wg.Wait()
}
