package display

import (
	"context"
	"encoding/binary"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/rpint/rpint/internal/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/sys/unix"
)

// FramebufferConfig describes the panel behind a Linux framebuffer device.
type FramebufferConfig struct {
	Device string
	// Width and Height are the panel size in pixels before rotation.
	Width  int
	Height int
	// OffsetX and OffsetY move the drawing origin on the panel.
	OffsetX int
	OffsetY int
	// Rotate is the number of clockwise quarter turns, 0 to 3.
	Rotate int
	// BGR swaps red and blue for panels wired that way.
	BGR bool
}

// Framebuffer is a Sink drawing RGB565 pixels into a memory-mapped fbtft
// device such as /dev/fb1.
type Framebuffer struct {
	mu     sync.Mutex
	cfg    FramebufferConfig
	face   font.Face
	mem    []byte
	unmap  func() error
	closed bool
}

// OpenFramebuffer maps cfg.Device for writing.
func OpenFramebuffer(cfg FramebufferConfig, face font.Face) (*Framebuffer, error) {
	f, err := os.OpenFile(cfg.Device, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDisplay,
			"Couldn't open "+cfg.Device,
			"Check the fbtft overlay is loaded and the user is in the 'video' group")
	}
	defer f.Close()

	size := cfg.Width * cfg.Height * 2
	mem, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDisplay,
			"Couldn't map "+cfg.Device,
			"Check serial_display_width and serial_display_height match the panel")
	}

	return newFramebuffer(cfg, face, mem, func() error { return unix.Munmap(mem) }), nil
}

func newFramebuffer(cfg FramebufferConfig, face font.Face, mem []byte, unmap func() error) *Framebuffer {
	return &Framebuffer{cfg: cfg, face: face, mem: mem, unmap: unmap}
}

// Present implements Sink.
func (fb *Framebuffer) Present(_ context.Context, f Frame) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return errors.New(errors.ErrDisplay, "Framebuffer is closed", "")
	}

	img := fb.rasterize(f)
	encodeRGB565(fb.mem, rotate(img, fb.cfg.Rotate), fb.cfg.BGR)
	return nil
}

// Close blanks the panel and unmaps it.
func (fb *Framebuffer) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.closed {
		return nil
	}
	fb.closed = true
	for i := range fb.mem {
		fb.mem[i] = 0
	}
	if fb.unmap != nil {
		return fb.unmap()
	}
	return nil
}

// rasterize draws the frame onto a black canvas the size of the logical
// (rotated) viewport.
func (fb *Framebuffer) rasterize(f Frame) *image.RGBA {
	w, h := fb.cfg.Width, fb.cfg.Height
	if fb.cfg.Rotate%2 == 1 {
		w, h = h, w
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(ColorBlack.RGBA()), image.Point{}, draw.Src)

	ascent := fb.face.Metrics().Ascent
	for _, op := range f.Ops {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(op.Color.RGBA()),
			Face: fb.face,
			Dot: fixed.Point26_6{
				X: fixed.I(op.X + fb.cfg.OffsetX),
				Y: fixed.I(op.Y+fb.cfg.OffsetY) + ascent,
			},
		}
		d.DrawString(op.Text)
	}
	return img
}

// rotate turns src clockwise by quarter turns.
func rotate(src *image.RGBA, quarters int) *image.RGBA {
	quarters = ((quarters % 4) + 4) % 4
	if quarters == 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if quarters%2 == 1 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			switch quarters {
			case 1:
				dst.SetRGBA(h-1-y, x, c)
			case 2:
				dst.SetRGBA(w-1-x, h-1-y, c)
			case 3:
				dst.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return dst
}

// encodeRGB565 packs img into mem as little-endian 16-bit pixels, row by
// row. Pixels beyond len(mem) are dropped.
func encodeRGB565(mem []byte, img *image.RGBA, bgr bool) {
	b := img.Bounds()
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i+2 > len(mem) {
				return
			}
			binary.LittleEndian.PutUint16(mem[i:], rgb565(img.RGBAAt(x, y), bgr))
			i += 2
		}
	}
}

func rgb565(c interface{ RGBA() (r, g, b, a uint32) }, bgr bool) uint16 {
	r, g, b, _ := c.RGBA()
	if bgr {
		r, b = b, r
	}
	return uint16((r>>11)<<11 | (g>>10)<<5 | (b >> 11))
}
