package display

import (
	"os"

	"github.com/rpint/rpint/internal/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// LoadFace loads the TrueType font at path, or Go Mono when path is empty,
// at size pixels.
func LoadFace(path string, size int) (font.Face, error) {
	data := gomono.TTF
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrDisplay,
				"Couldn't read font "+path,
				"Check font_path, or leave it empty to use the built-in font")
		}
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDisplay,
			"Couldn't parse font "+path,
			"font_path must point at a .ttf or .otf file")
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrDisplay,
			"Couldn't size font "+path,
			"Check font_size")
	}
	return face, nil
}

// FaceMeasurer measures text with a font face.
type FaceMeasurer struct {
	Face font.Face
}

// Measure implements Measurer.
func (m FaceMeasurer) Measure(text string) int {
	return font.MeasureString(m.Face, text).Ceil()
}
