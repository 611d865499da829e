package sim

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

const jpegQuality = 80

// SamplePreview returns a synthesized preview-sized JPEG without opening a
// connection. seq shifts the sweep band so repeated calls animate.
func SamplePreview(seq int) ([]byte, error) {
	return renderFrame(previewWidth, previewHeight, seq)
}

// SampleStill returns a synthesized full-resolution JPEG without opening a
// connection.
func SampleStill() ([]byte, error) {
	return renderFrame(stillWidth, stillHeight, 0)
}

// renderFrame synthesizes one JPEG test frame. A vertical band sweeps across
// a checkered background so consecutive frames differ visibly, which makes
// stalled streams obvious at a glance.
func renderFrame(width, height, seq int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	background := color.RGBA{R: 24, G: 28, B: 36, A: 255}
	checker := color.RGBA{R: 38, G: 44, B: 56, A: 255}
	band := color.RGBA{R: 235, G: 180, B: 52, A: 255}

	const cell = 40
	bandStart := (seq * 16) % width
	bandEnd := bandStart + width/8

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := background
			if (x/cell+y/cell)%2 == 0 {
				c = checker
			}
			if x >= bandStart && x < bandEnd {
				c = band
			}
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
