package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/image/draw"

	"github.com/cjeanneret/HandCam/internal/logic/capture"
	"github.com/cjeanneret/HandCam/internal/logic/gallery"
	"github.com/cjeanneret/HandCam/internal/logic/handheld"
)

// MaxThumbnailWidth bounds the ?width parameter of GET /gallery/{slot}.
const MaxThumbnailWidth = 4096

// Runner executes fn on the goroutine that owns the camera.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Camera is what the remote control needs from the camera subsystem.
type Camera interface {
	handheld.Controls
	Capture() (capture.Outcome, error)
	State() handheld.State
	Gallery() *gallery.Gallery
}

// ShotResult is the JSON answer to POST /controls/shoot.
type ShotResult struct {
	Slot     int    `json:"slot"`
	Stored   bool   `json:"stored"`
	Deferred bool   `json:"deferred"`
	Feedback bool   `json:"feedback"`
	Seq      uint64 `json:"seq,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SlotInfo describes one gallery slot for GET /gallery.
type SlotInfo struct {
	Slot    int       `json:"slot"`
	Empty   bool      `json:"empty"`
	ID      string    `json:"id,omitempty"`
	Seq     uint64    `json:"seq,omitempty"`
	TakenAt time.Time `json:"taken_at,omitempty"`
	Width   int       `json:"width,omitempty"`
	Height  int       `json:"height,omitempty"`
}

// GalleryInfo is the JSON answer to GET /gallery.
type GalleryInfo struct {
	Capacity int        `json:"capacity"`
	Count    int        `json:"count"`
	Slots    []SlotInfo `json:"slots"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Runner      Runner
	Camera      Camera
	Remote      *Remote
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *StatusBroadcaster, runner Runner, cam Camera, remote *Remote, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Runner:      runner,
		Camera:      cam,
		Remote:      remote,
		staticFS:    staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleReadout handles GET /readout.
func (h *Handlers) HandleReadout(w http.ResponseWriter, r *http.Request) {
	var st handheld.State
	if err := h.Runner.Do(r.Context(), func() { st = h.Camera.State() }); err != nil {
		writeUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleControl handles POST /controls/{action}.
func (h *Handlers) HandleControl(w http.ResponseWriter, r *http.Request) {
	action, err := ParseAction(r.PathValue("action"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if action == ActionShoot {
		var res ShotResult
		err := h.Runner.Do(r.Context(), func() {
			out, err := h.Camera.Capture()
			res = shotResult(out, err)
		})
		if err != nil {
			writeUnavailable(w, err)
			return
		}
		if res.Error != "" {
			h.Broadcaster.Broadcast(LevelError, "Capture failed: "+res.Error)
		}
		writeJSON(w, http.StatusOK, res)
		return
	}

	var st handheld.State
	if err := h.Runner.Do(r.Context(), func() {
		action.apply(h.Camera, false)
		st = h.Camera.State()
	}); err != nil {
		writeUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func shotResult(out capture.Outcome, err error) ShotResult {
	res := ShotResult{
		Slot:     out.Slot,
		Stored:   out.Stored,
		Deferred: out.Deferred,
		Feedback: out.Feedback,
	}
	if out.Image != nil {
		res.Seq = out.Image.Seq
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// HandleGallery handles GET /gallery.
func (h *Handlers) HandleGallery(w http.ResponseWriter, r *http.Request) {
	var info GalleryInfo
	err := h.Runner.Do(r.Context(), func() {
		g := h.Camera.Gallery()
		info.Capacity = g.Capacity()
		info.Count = g.Len()
		for i, img := range g.Slots() {
			si := SlotInfo{Slot: i, Empty: img == nil}
			if img != nil {
				b := img.Bounds()
				si.ID = img.ID.String()
				si.Seq = img.Seq
				si.TakenAt = img.TakenAt
				si.Width, si.Height = b.Dx(), b.Dy()
			}
			info.Slots = append(info.Slots, si)
		}
	})
	if err != nil {
		writeUnavailable(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// HandleGalleryImage handles GET /gallery/{slot}. ?width=N returns a
// thumbnail scaled to N pixels wide.
func (h *Handlers) HandleGalleryImage(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.Atoi(r.PathValue("slot"))
	if err != nil || slot < 0 {
		http.Error(w, "slot must be a non-negative integer", http.StatusBadRequest)
		return
	}
	width := 0
	if s := r.URL.Query().Get("width"); s != "" {
		width, err = strconv.Atoi(s)
		if err != nil || width <= 0 || width > MaxThumbnailWidth {
			http.Error(w, "width must be between 1 and "+strconv.Itoa(MaxThumbnailWidth), http.StatusBadRequest)
			return
		}
	}

	var (
		img      *gallery.CapturedImage
		capacity int
	)
	if err := h.Runner.Do(r.Context(), func() {
		g := h.Camera.Gallery()
		capacity = g.Capacity()
		img = g.Slot(slot)
	}); err != nil {
		writeUnavailable(w, err)
		return
	}
	if slot >= capacity {
		http.Error(w, "slot out of range", http.StatusBadRequest)
		return
	}
	if img == nil {
		http.Error(w, "slot is empty", http.StatusNotFound)
		return
	}

	// Captured images are immutable, encoding happens off the frame loop.
	var out image.Image = img.Image()
	if width > 0 {
		out = Thumbnail(out, width)
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		log.Printf("encode gallery slot %d: %v", slot, err)
	}
}

// Thumbnail scales src to width pixels wide, keeping the aspect ratio.
func Thumbnail(src image.Image, width int) image.Image {
	b := src.Bounds()
	if b.Dx() == 0 || width >= b.Dx() {
		return src
	}
	height := b.Dy() * width / b.Dx()
	if height < 1 {
		height = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeUnavailable(w http.ResponseWriter, err error) {
	if errors.Is(err, context.Canceled) {
		// Client went away.
		return
	}
	http.Error(w, "camera not running: "+err.Error(), http.StatusServiceUnavailable)
}
