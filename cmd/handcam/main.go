package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cjeanneret/HandCam/internal/config"
	"github.com/cjeanneret/HandCam/internal/debug"
	"github.com/cjeanneret/HandCam/internal/hw/buttons"
	"github.com/cjeanneret/HandCam/internal/hw/gpio"
	"github.com/cjeanneret/HandCam/internal/hw/shutter"
	"github.com/cjeanneret/HandCam/internal/logic/capture"
	"github.com/cjeanneret/HandCam/internal/logic/effects"
	"github.com/cjeanneret/HandCam/internal/logic/frame"
	"github.com/cjeanneret/HandCam/internal/logic/handheld"
	"github.com/cjeanneret/HandCam/internal/logic/params"
	"github.com/cjeanneret/HandCam/internal/sim"
	"github.com/cjeanneret/HandCam/internal/web"
)

// cliOverrides are command line values replacing config settings.
// Zero values mean "use config".
type cliOverrides struct {
	Profile string
	Mode    string
	FPS     int
}

func main() {
	// CLI flags
	webPort := &webPortFlag{defaultPort: 8080}
	flag.Var(webPort, "web", "start web remote on port; -web= for default 8080, -web 8980 for custom port")
	cfgPath := flag.String("config", filepath.Join("configs", "default.yaml"), "path to config file")
	profile := flag.String("profile", "", "override camera profile (fov or focal)")
	mode := flag.String("mode", "", "override effect mode (physical or postprocessing)")
	fps := flag.Int("fps", 0, "override frame rate (1-240)")
	shoot := flag.Int("shoot", 0, "take N photos headless and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := config.ValidateConfigPath(*cfgPath); err != nil {
		log.Fatalf("invalid config path: %v", err)
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	overrides := cliOverrides{Profile: *profile, Mode: *mode, FPS: *fps}
	if err := validateCLIOverrides(overrides); err != nil {
		log.Fatalf("invalid CLI override: %v", err)
	}
	if *shoot < 0 {
		log.Fatalf("invalid CLI override: shoot must be >= 0, got %d", *shoot)
	}
	applyOverrides(cfg, overrides)

	// Initialize debug system
	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", *cfgPath)
	debug.Value("Debug level", debug.Level())

	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Step(1, "Initializing GPIO driver")
	gpioDriver, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		log.Fatalf("init GPIO failed: %v", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	var broadcaster *web.StatusBroadcaster
	var sink handheld.ReadoutSink = logReadout{}
	if webPort.port() > 0 {
		broadcaster = web.NewStatusBroadcaster()
		if debug.IsEnabled(debug.LevelInfo) {
			// Mirror the debug log on the remote's status stream.
			debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
		}
		sink = web.ReadoutSink(broadcaster)
	}

	a, err := newApp(cfg, gpioDriver, sink)
	if err != nil {
		log.Fatalf("init camera failed: %v", err)
	}
	defer a.close()

	if *shoot > 0 {
		stored := a.shootHeadless(*shoot)
		fmt.Printf("%d photo(s) taken, %d stored, %d printed\n", *shoot, stored, len(a.tray.Prints()))
		return
	}

	if broadcaster != nil {
		a.cam.OnCapture(func(o capture.Outcome, err error) {
			switch {
			case err != nil:
				broadcaster.Broadcast(web.LevelError, "Capture failed: "+err.Error())
			case o.Stored:
				broadcaster.BroadcastMsg(fmt.Sprintf("Photo #%d stored in slot %d", o.Image.Seq, o.Slot+1))
			case o.Image != nil:
				broadcaster.Broadcast(web.LevelWarn, fmt.Sprintf("Gallery full, photo #%d not kept", o.Image.Seq))
			}
		})
		srv := web.NewServer(fmt.Sprintf(":%d", webPort.port()), broadcaster, a.loop, a.cam, a.remote)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Printf("web server: %v", err)
				cancel()
			}
		}()
	}

	debug.Section("Camera running")
	if err := a.loop.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("frame loop: %v", err)
	}
}

// app is the wired camera: simulated rendering side, GPIO controls and
// the frame loop driving them.
type app struct {
	cfg     *config.Config
	scene   *sim.Scene
	tray    *sim.Tray
	cue     *sim.Shutter
	remote  *web.Remote
	trigger *shutter.Remote
	panel   *buttons.Panel
	cam     *handheld.Camera
	loop    *frame.Loop
}

func newApp(cfg *config.Config, g gpio.Driver, sink handheld.ReadoutSink) (*app, error) {
	a := &app{cfg: cfg, tray: sim.NewTray(cfg.Capture.TraySize), cue: &sim.Shutter{}}

	debug.Step(2, "Creating scene")
	scene, err := sim.NewScene(cfg.Capture.Width, cfg.Capture.Height, sim.AllEffects)
	if err != nil {
		return nil, err
	}
	a.scene = scene
	var target capture.RenderTarget = scene
	if cfg.OnDemand() {
		target = sim.OnDemand(scene)
	}
	w, h := scene.Size()
	debug.Value("Frame buffer", fmt.Sprintf("%dx%d", w, h))
	debug.Value("Render on demand", cfg.OnDemand())

	cues := shutter.Chain{a.cue}
	if cfg.Shutter.ShutterPin != 0 {
		debug.Step(3, "Initializing remote shutter")
		a.trigger, err = shutter.NewRemote(g, shutter.Config{
			ShutterPin: cfg.Shutter.ShutterPin,
			FocusPin:   cfg.Shutter.FocusPin,
			FocusDelay: cfg.FocusDelay(),
			Hold:       cfg.ShutterHold(),
		})
		if err != nil {
			return nil, fmt.Errorf("init remote shutter: %w", err)
		}
		cues = append(cues, a.trigger)
		debug.PrintStruct("Remote shutter", cfg.Shutter)
	}

	specs, err := cfg.Specs()
	if err != nil {
		return nil, err
	}

	printOffset := cfg.PrintOffset()
	debug.Step(4, "Creating camera")
	a.cam, err = handheld.New(handheld.Options{
		Profile:         cfg.Profile(),
		Specs:           specs,
		Mode:            cfg.Mode(),
		SensorHeightMm:  cfg.Camera.SensorHeightMm,
		GalleryCapacity: cfg.Capture.GalleryCapacity,
		Policy:          cfg.Feedback(),
		PrintOffset:     &printOffset,
	}, handheld.Collaborators{
		Lens:     scene,
		Physical: scene,
		Profile:  scene,
		Target:   target,
		Pose:     capture.StaticPose{Fwd: mgl64.Vec3{0, 0, 1}},
		Shutter:  cues,
		Printer:  a.tray,
		Readout:  sink,
	})
	if err != nil {
		return nil, err
	}
	debug.Summary(fmt.Sprintf("HandCam: profile=%s mode=%s gallery=%d",
		cfg.Profile(), cfg.Mode(), cfg.Capture.GalleryCapacity))

	debug.Step(5, "Initializing buttons")
	a.panel, err = buttons.NewPanel(g, a.cam, buttons.Pins{
		Next:      cfg.Controls.Buttons.Next,
		Previous:  cfg.Controls.Buttons.Previous,
		Increment: cfg.Controls.Buttons.Increment,
		Decrement: cfg.Controls.Buttons.Decrement,
		Shoot:     cfg.Controls.Buttons.Shoot,
		Display:   cfg.Controls.Buttons.Display,
	}, cfg.RepeatDelay())
	if err != nil {
		return nil, fmt.Errorf("init buttons: %w", err)
	}
	debug.Value("Buttons fitted", a.panel.Fitted())

	a.remote = web.NewRemote(a.cam)
	a.loop = frame.NewLoop(a.cam, cfg.Defaults.FPS,
		frame.WithRenderer(scene),
		frame.WithSources(a.panel, a.remote),
	)
	debug.Value("Frame rate", cfg.Defaults.FPS)
	return a, nil
}

// shootHeadless steps the loop by hand, taking n photos, and returns how
// many were stored.
func (a *app) shootHeadless(n int) int {
	stored := 0
	a.cam.OnCapture(func(o capture.Outcome, err error) {
		if err == nil && o.Stored {
			stored++
		}
	})
	a.loop.Step(a.loop.Interval())
	for i := 0; i < n; i++ {
		a.cam.TakePhoto()
		a.loop.Step(a.loop.Interval())
	}
	return stored
}

func (a *app) close() {
	if a.trigger != nil {
		a.trigger.Wait()
	}
}

// logReadout shows the readout in the debug log when no web remote runs.
type logReadout struct{}

func (logReadout) ShowReadout(text string) {
	if text != "" {
		debug.Live("readout: %s", text)
	}
}

// validateCLIOverrides checks the non-zero CLI overrides.
func validateCLIOverrides(o cliOverrides) error {
	if o.Profile != "" {
		if _, err := params.ParseProfile(o.Profile); err != nil {
			return err
		}
	}
	if o.Mode != "" {
		if _, err := effects.ParseMode(o.Mode); err != nil {
			return err
		}
	}
	if o.FPS != 0 && (o.FPS < 1 || o.FPS > 240) {
		return fmt.Errorf("fps must be between 1 and 240, got %d", o.FPS)
	}
	return nil
}

// applyOverrides mutates cfg with overrides. Only non-zero override values are applied.
// A profile override also drops camera.params, which describe the other profile's ranges.
func applyOverrides(cfg *config.Config, o cliOverrides) {
	if o.Profile != "" && o.Profile != cfg.Camera.Profile {
		cfg.Camera.Profile = o.Profile
		cfg.Camera.Params = nil
	}
	if o.Mode != "" {
		cfg.Camera.Mode = o.Mode
	}
	if o.FPS > 0 {
		cfg.Defaults.FPS = o.FPS
	}
}

// webPortFlag implements flag.Value for -web: 0 = disabled, -web= or -web 8080 → 8080, -web 8980 → 8980.
type webPortFlag struct {
	val         int
	defaultPort int
}

func (w *webPortFlag) String() string {
	if w.val == 0 {
		return "0"
	}
	return strconv.Itoa(w.val)
}

func (w *webPortFlag) Set(s string) error {
	if s == "" {
		w.val = w.defaultPort
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if v <= 0 || v > 65535 {
		return fmt.Errorf("port must be 1-65535, got %d", v)
	}
	w.val = v
	return nil
}

func (w *webPortFlag) port() int { return w.val }
