// Package buttons reads the camera's physical controls from GPIO.
package buttons

import (
	"fmt"
	"time"

	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/hw/gpio"
	"github.com/cjeanneret/HandCam/internal/logic/handheld"
)

// Pins assigns BCM pins to the controls. Buttons are active LOW with the
// internal pull-up enabled. 0 = button not fitted.
type Pins struct {
	Next      int
	Previous  int
	Increment int
	Decrement int
	Shoot     int
	Display   int
}

type action int

const (
	actNext action = iota
	actPrevious
	actIncrement
	actDecrement
	actShoot
	actDisplay
)

func (a action) String() string {
	return [...]string{"next", "previous", "increment", "decrement", "shoot", "display"}[a]
}

type button struct {
	pin     int
	act     action
	pressed bool
	held    time.Duration
}

// Panel polls the buttons once per frame and forwards presses to the camera.
//
// Increment and decrement step once when pressed. Held longer than the
// repeat delay, they adjust continuously every frame.
type Panel struct {
	gpio        gpio.Driver
	controls    handheld.Controls
	repeatDelay time.Duration
	buttons     []*button
}

// NewPanel sets up the fitted buttons as pull-up inputs.
func NewPanel(g gpio.Driver, c handheld.Controls, pins Pins, repeatDelay time.Duration) (*Panel, error) {
	p := &Panel{gpio: g, controls: c, repeatDelay: repeatDelay}
	for _, b := range []struct {
		pin int
		act action
	}{
		{pins.Next, actNext},
		{pins.Previous, actPrevious},
		{pins.Increment, actIncrement},
		{pins.Decrement, actDecrement},
		{pins.Shoot, actShoot},
		{pins.Display, actDisplay},
	} {
		if b.pin == 0 {
			continue
		}
		if err := g.SetupPin(b.pin, gpio.InputPullUp); err != nil {
			return nil, fmt.Errorf("setup %s button (pin %d): %w", b.act, b.pin, err)
		}
		p.buttons = append(p.buttons, &button{pin: b.pin, act: b.act})
		debug.Verbose("Button %s on pin %d", b.act, b.pin)
	}
	return p, nil
}

// Fitted returns how many buttons are wired.
func (p *Panel) Fitted() int {
	return len(p.buttons)
}

// Poll implements frame.Source.
func (p *Panel) Poll(elapsed time.Duration) {
	for _, b := range p.buttons {
		level, err := p.gpio.ReadPin(b.pin)
		if err != nil {
			debug.Warn("read %s button (pin %d): %v", b.act, b.pin, err)
			continue
		}
		down := level == gpio.Low

		switch {
		case down && !b.pressed:
			b.pressed = true
			b.held = 0
			debug.Live("button %s pressed", b.act)
			p.press(b.act)
		case down && b.pressed:
			b.held += elapsed
			if b.held > p.repeatDelay {
				p.repeat(b.act)
			}
		case !down && b.pressed:
			b.pressed = false
			debug.Verbose("button %s released after %v", b.act, b.held)
		}
	}
}

func (p *Panel) press(a action) {
	switch a {
	case actNext:
		p.controls.NextSetting()
	case actPrevious:
		p.controls.PreviousSetting()
	case actIncrement:
		p.controls.IncrementSetting(false)
	case actDecrement:
		p.controls.DecrementSetting(false)
	case actShoot:
		p.controls.TakePhoto()
	case actDisplay:
		p.controls.ToggleDisplayVisible()
	}
}

func (p *Panel) repeat(a action) {
	switch a {
	case actIncrement:
		p.controls.IncrementSetting(true)
	case actDecrement:
		p.controls.DecrementSetting(true)
	}
}
