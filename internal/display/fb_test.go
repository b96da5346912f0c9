package display

import (
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRGB565(t *testing.T) {
	tests := []struct {
		name string
		c    color.RGBA
		bgr  bool
		want uint16
	}{
		{name: "black", c: color.RGBA{A: 0xff}, want: 0x0000},
		{name: "white", c: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, want: 0xffff},
		{name: "red", c: color.RGBA{R: 0xff, A: 0xff}, want: 0xf800},
		{name: "red on bgr panel", c: color.RGBA{R: 0xff, A: 0xff}, bgr: true, want: 0x001f},
		{name: "lime", c: ColorLime.RGBA(), want: 0x07e0},
		{name: "cyan", c: ColorCyan.RGBA(), want: 0x07ff},
		{name: "yellow", c: ColorYellow.RGBA(), want: 0xffe0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rgb565(tt.c, tt.bgr))
		})
	}
}

func TestRotate(t *testing.T) {
	// 2x1 image: red at (0,0), blue at (1,0).
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	red := color.RGBA{R: 0xff, A: 0xff}
	blue := color.RGBA{B: 0xff, A: 0xff}
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, blue)

	assert.Same(t, src, rotate(src, 0))
	assert.Same(t, src, rotate(src, 4))

	cw := rotate(src, 1)
	assert.Equal(t, image.Rect(0, 0, 1, 2), cw.Bounds())
	assert.Equal(t, red, cw.RGBAAt(0, 0))
	assert.Equal(t, blue, cw.RGBAAt(0, 1))

	half := rotate(src, 2)
	assert.Equal(t, blue, half.RGBAAt(0, 0))
	assert.Equal(t, red, half.RGBAAt(1, 0))

	ccw := rotate(src, 3)
	assert.Equal(t, blue, ccw.RGBAAt(0, 0))
	assert.Equal(t, red, ccw.RGBAAt(0, 1))
}

func TestEncodeRGB565_Truncates(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 1))
	for x := 0; x < 4; x++ {
		img.SetRGBA(x, 0, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	}
	mem := make([]byte, 5)

	encodeRGB565(mem, img, false)

	assert.Equal(t, uint16(0xffff), binary.LittleEndian.Uint16(mem[0:]))
	assert.Equal(t, uint16(0xffff), binary.LittleEndian.Uint16(mem[2:]))
	assert.Equal(t, byte(0), mem[4])
}

func TestFramebuffer_PresentAndClose(t *testing.T) {
	face, err := LoadFace("", 12)
	require.NoError(t, err)

	cfg := FramebufferConfig{Width: 128, Height: 128, OffsetX: 1, OffsetY: 2}
	mem := make([]byte, cfg.Width*cfg.Height*2)
	unmapped := false
	fb := newFramebuffer(cfg, face, mem, func() error { unmapped = true; return nil })

	frame := Compose([]Line{{Label: "PORT ID", Value: "Gi0/1"}}, State{}, "BATTERY 87%", Config{Width: 128, Height: 128, FontSize: 12})
	require.NoError(t, fb.Present(context.Background(), frame))

	lit := 0
	for i := 0; i < len(mem); i += 2 {
		if binary.LittleEndian.Uint16(mem[i:]) != 0 {
			lit++
		}
	}
	assert.Positive(t, lit, "text should light some pixels")

	require.NoError(t, fb.Close())
	assert.True(t, unmapped)
	for _, b := range mem {
		if b != 0 {
			t.Fatal("close should blank the panel")
		}
	}

	assert.Error(t, fb.Present(context.Background(), frame))
	assert.NoError(t, fb.Close())
}

func TestOpenFramebuffer_MissingDevice(t *testing.T) {
	face, err := LoadFace("", 12)
	require.NoError(t, err)

	_, err = OpenFramebuffer(FramebufferConfig{Device: t.TempDir() + "/fb9", Width: 128, Height: 128}, face)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fb9")
}

func TestLoadFace(t *testing.T) {
	face, err := LoadFace("", 12)
	require.NoError(t, err)

	m := FaceMeasurer{Face: face}
	assert.Positive(t, m.Measure("Gi0/1"))
	// Go Mono is monospaced.
	assert.Equal(t, m.Measure("iiii"), m.Measure("WWWW"))
	assert.Equal(t, 0, m.Measure(""))

	_, err = LoadFace(t.TempDir()+"/missing.ttf", 12)
	assert.Error(t, err)
}
