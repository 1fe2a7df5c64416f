package readout

import (
	"testing"

	"github.com/cjeanneret/HandCam/internal/logic/adjust"
	"github.com/cjeanneret/HandCam/internal/logic/params"
)

func newDisplay(t *testing.T, p params.Profile) (*Display, *adjust.Controller, *params.Store) {
	t.Helper()
	store, err := params.NewStore(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := adjust.NewController(store)
	return New(store, ctrl), ctrl, store
}

func TestDescribe_Units(t *testing.T) {
	d, _, store := newDisplay(t, params.ProfileFieldOfView)
	store.Set(params.FocusDistance, 3.456)
	store.Set(params.ExposureBias, -0.2)

	cases := []struct {
		setting adjust.Setting
		want    string
	}{
		{adjust.Zoom, "60.0 mm"},
		{adjust.Aperture, "f/2.8"},
		{adjust.FocusDistance, "3.46 m"},
		{adjust.Exposure, "-0.2 EV"},
	}
	for _, tc := range cases {
		if got := d.Describe(tc.setting); got != tc.want {
			t.Errorf("Describe(%s) = %q, want %q", tc.setting, got, tc.want)
		}
	}
}

func TestDescribe_FocalProfileExposureIsISO(t *testing.T) {
	d, _, _ := newDisplay(t, params.ProfileFocalLength)
	if got := d.Describe(adjust.Exposure); got != "ISO 400" {
		t.Errorf("Describe(Exposure) = %q, want \"ISO 400\"", got)
	}
	if got := d.Describe(adjust.Zoom); got != "50.0 mm" {
		t.Errorf("Describe(Zoom) = %q, want \"50.0 mm\"", got)
	}
}

func TestText_FollowsActiveSetting(t *testing.T) {
	d, ctrl, _ := newDisplay(t, params.ProfileFieldOfView)
	if got := d.Text(); got != "Zoom: 60.0 mm" {
		t.Errorf("Text() = %q", got)
	}
	ctrl.Next()
	if got := d.Text(); got != "Aperture: f/2.8" {
		t.Errorf("Text() after Next = %q", got)
	}
}

func TestToggleVisible(t *testing.T) {
	d, _, _ := newDisplay(t, params.ProfileFieldOfView)
	if !d.Visible() {
		t.Fatal("display should start visible")
	}
	if d.ToggleVisible() {
		t.Error("ToggleVisible should hide")
	}
	if got := d.Text(); got != "" {
		t.Errorf("hidden Text() = %q, want empty", got)
	}
	if !d.ToggleVisible() {
		t.Error("second ToggleVisible should show")
	}
	d.SetVisible(false)
	if d.Visible() {
		t.Error("SetVisible(false) ignored")
	}
}

func TestFormat_ShutterSpeed(t *testing.T) {
	if got := Format(params.ShutterSpeed, 125); got != "1/125 s" {
		t.Errorf("Format(shutter) = %q", got)
	}
	if got := Format(params.ExposureBias, 0.4); got != "+0.4 EV" {
		t.Errorf("Format(bias) = %q", got)
	}
}
