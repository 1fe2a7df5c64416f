package gallery

import (
	"image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

// DefaultCapacity is the number of slots a gallery has unless configured otherwise.
const DefaultCapacity = 10

// CapturedImage is an immutable snapshot of a rendered frame.
type CapturedImage struct {
	ID      uuid.UUID
	Seq     uint64
	TakenAt time.Time
	pixels  *image.RGBA
}

// NewCapturedImage copies src into a new image. Later changes to src are
// not visible through the returned value.
func NewCapturedImage(seq uint64, takenAt time.Time, src image.Image) *CapturedImage {
	return &CapturedImage{
		ID:      uuid.New(),
		Seq:     seq,
		TakenAt: takenAt,
		pixels:  cloneRGBA(src),
	}
}

// Image returns the pixels. Callers must not modify the returned image;
// use Clone for an owned copy.
func (c *CapturedImage) Image() image.Image {
	return c.pixels
}

// Clone returns an independent copy of the pixels.
func (c *CapturedImage) Clone() *image.RGBA {
	return cloneRGBA(c.pixels)
}

// Bounds returns the image rectangle.
func (c *CapturedImage) Bounds() image.Rectangle {
	return c.pixels.Bounds()
}

func cloneRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Gallery is a fixed-capacity, ordered set of slots filled left to right.
// Entries are never evicted or overwritten.
type Gallery struct {
	slots []*CapturedImage
	count int
}

// New creates an empty gallery. A capacity below 1 uses DefaultCapacity.
func New(capacity int) *Gallery {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Gallery{slots: make([]*CapturedImage, capacity)}
}

// Capacity returns the number of slots.
func (g *Gallery) Capacity() int {
	return len(g.slots)
}

// Len returns the number of occupied slots.
func (g *Gallery) Len() int {
	return g.count
}

// Full reports whether every slot is occupied.
func (g *Gallery) Full() bool {
	return g.count == len(g.slots)
}

// Store puts img into the first unoccupied slot and returns its index.
// When the gallery is full the image is not retained and ok is false.
func (g *Gallery) Store(img *CapturedImage) (slot int, ok bool) {
	if img == nil {
		return -1, false
	}
	for i, s := range g.slots {
		if s == nil {
			g.slots[i] = img
			g.count++
			return i, true
		}
	}
	return -1, false
}

// Slot returns the image in slot i, or nil if empty or out of range.
func (g *Gallery) Slot(i int) *CapturedImage {
	if i < 0 || i >= len(g.slots) {
		return nil
	}
	return g.slots[i]
}

// Slots returns a copy of the slot table; empty slots are nil.
func (g *Gallery) Slots() []*CapturedImage {
	out := make([]*CapturedImage, len(g.slots))
	copy(out, g.slots)
	return out
}
