// Package display owns what is on screen: the scroll state machine, the
// ordered display lines built from the store, the render loop, and the sinks
// that put a frame on a panel, a terminal, or the log.
package display

import (
	"context"
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/rpint/rpint/internal/logger"
)

// Layout constants in pixels.
const (
	// TopY is where the first label is drawn, below the battery line.
	TopY = 25
	// LeftMargin is the x position of text when not scrolled.
	LeftMargin = 1
)

// Color is a 24-bit RGB colour.
type Color uint32

// Palette.
const (
	ColorBlack  Color = 0x000000
	ColorLime   Color = 0x00ff00
	ColorCyan   Color = 0x00ffff
	ColorYellow Color = 0xffff00
)

// RGBA converts c for use with image/draw.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xff}
}

// DrawOp is one piece of text placed on the frame. X and Y are the top-left
// corner of the text.
type DrawOp struct {
	Text  string
	X     int
	Y     int
	Color Color
}

// Frame is a complete screen: the viewport size and the draw operations in
// painting order.
type Frame struct {
	Width  int
	Height int
	Ops    []DrawOp
}

// Sink receives finished frames.
type Sink interface {
	// Present shows f, replacing the previous frame.
	Present(ctx context.Context, f Frame) error
	// Close releases the output. No frame is presented after Close.
	Close() error
}

// Measurer reports the rendered width of text in pixels.
type Measurer interface {
	Measure(text string) int
}

// FixedWidth measures every rune as the same number of pixels, which is exact
// for monospaced faces and for terminal cells.
type FixedWidth int

// Measure implements Measurer.
func (w FixedWidth) Measure(text string) int {
	return utf8.RuneCountInString(text) * int(w)
}

// LogSink writes each frame to the log at debug level. It is used when the
// device has no panel.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

// Present implements Sink.
func (s *LogSink) Present(_ context.Context, f Frame) error {
	texts := make([]string, 0, len(f.Ops))
	for _, op := range f.Ops {
		texts = append(texts, op.Text)
	}
	s.log.Debug("frame: %s", strings.Join(texts, " | "))
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }
