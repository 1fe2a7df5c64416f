package shutter

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/HandCam/internal/hw/gpio"
)

// recordingDriver records GPIO calls for verification.
type recordingDriver struct {
	mu      sync.Mutex
	calls   []gpioCall
	failPin int
}

type gpioCall struct {
	op    string
	pin   int
	level gpio.Level
}

func (d *recordingDriver) SetupPin(pin int, mode gpio.PinMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, gpioCall{op: "setup", pin: pin})
	return nil
}

func (d *recordingDriver) WritePin(pin int, level gpio.Level) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pin == d.failPin && level == gpio.Low {
		return errors.New("pin stuck")
	}
	d.calls = append(d.calls, gpioCall{op: "write", pin: pin, level: level})
	return nil
}

func (d *recordingDriver) ReadPin(pin int) (gpio.Level, error) { return gpio.Low, nil }
func (d *recordingDriver) Close() error                        { return nil }

func (d *recordingDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

func (d *recordingDriver) writeCalls() []gpioCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []gpioCall
	for _, c := range d.calls {
		if c.op == "write" {
			result = append(result, c)
		}
	}
	return result
}

func TestNewRemote_ReleasesLines(t *testing.T) {
	drv := &recordingDriver{}
	if _, err := NewRemote(drv, Config{ShutterPin: 25, FocusPin: 24}); err != nil {
		t.Fatal(err)
	}
	writes := drv.writeCalls()
	if len(writes) != 2 {
		t.Fatalf("writes = %v", writes)
	}
	for _, w := range writes {
		if w.level != gpio.High {
			t.Errorf("pin %d initialized %v, want HIGH", w.pin, w.level)
		}
	}
}

func TestShoot_Sequence(t *testing.T) {
	drv := &recordingDriver{}
	r, _ := NewRemote(drv, Config{ShutterPin: 25, FocusPin: 24, FocusDelay: time.Microsecond, Hold: time.Microsecond})
	drv.reset()

	if err := r.Shoot(); err != nil {
		t.Fatalf("Shoot: %v", err)
	}

	expected := []gpioCall{
		{"write", 24, gpio.Low},
		{"write", 25, gpio.Low},
		{"write", 25, gpio.High},
		{"write", 24, gpio.High},
	}
	writes := drv.writeCalls()
	if len(writes) != len(expected) {
		t.Fatalf("expected %d writes, got %d: %v", len(expected), len(writes), writes)
	}
	for i, exp := range expected {
		if writes[i] != exp {
			t.Errorf("step %d: got %+v, want %+v", i, writes[i], exp)
		}
	}
}

func TestShoot_NoFocusLine(t *testing.T) {
	drv := &recordingDriver{}
	r, _ := NewRemote(drv, Config{ShutterPin: 25})
	drv.reset()
	if err := r.Shoot(); err != nil {
		t.Fatal(err)
	}
	writes := drv.writeCalls()
	if len(writes) != 2 || writes[0].pin != 25 || writes[1].pin != 25 {
		t.Errorf("writes = %v, want shutter pin only", writes)
	}
}

func TestShoot_ShutterErrorReleasesFocus(t *testing.T) {
	drv := &recordingDriver{failPin: 25}
	r, _ := NewRemote(drv, Config{ShutterPin: 25, FocusPin: 24})
	drv.reset()
	if err := r.Shoot(); err == nil {
		t.Fatal("expected error")
	}
	writes := drv.writeCalls()
	last := writes[len(writes)-1]
	if last.pin != 24 || last.level != gpio.High {
		t.Errorf("focus not released: %v", writes)
	}
}

func TestPlayShutter_Async(t *testing.T) {
	drv := &recordingDriver{}
	r, _ := NewRemote(drv, Config{ShutterPin: 25, Hold: time.Millisecond})
	drv.reset()

	r.PlayShutter()
	r.Wait()
	if n := len(drv.writeCalls()); n != 2 {
		t.Errorf("writes = %d, want 2", n)
	}
}

func TestPlayShutter_DropsWhileBusy(t *testing.T) {
	drv := &recordingDriver{}
	r, _ := NewRemote(drv, Config{ShutterPin: 25, Hold: 50 * time.Millisecond})
	drv.reset()

	r.PlayShutter()
	r.PlayShutter()
	r.Wait()
	if n := len(drv.writeCalls()); n != 2 {
		t.Errorf("writes = %d, want 2 (second cue dropped)", n)
	}
}

type counter struct{ n int }

func (c *counter) PlayShutter() { c.n++ }

func TestChain(t *testing.T) {
	a, b := &counter{}, &counter{}
	Chain{a, nil, b}.PlayShutter()
	if a.n != 1 || b.n != 1 {
		t.Errorf("a=%d b=%d", a.n, b.n)
	}
}
