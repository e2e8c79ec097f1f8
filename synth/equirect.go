package synth

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// IsEquirect reports whether the image has the 2:1 aspect ratio required by
// equirectangular projection.
func IsEquirect(img image.Image) bool {
	bounds := img.Bounds()
	return bounds.Dx() == 2*bounds.Dy()
}

// EnsureEquirect returns the image resampled to the exact 2:1 target frame.
// Images already matching the target dimensions are returned unchanged.
// Catmull-Rom resampling keeps the horizon seam smooth at the cost of a
// slightly slower pass.
func EnsureEquirect(img image.Image, targetWidth, targetHeight int) (image.Image, error) {
	if targetWidth != 2*targetHeight {
		return nil, fmt.Errorf("%w: target %dx%d is not 2:1",
			ErrInvalidParams, targetWidth, targetHeight)
	}

	bounds := img.Bounds()
	if bounds.Dx() == targetWidth && bounds.Dy() == targetHeight {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst, nil
}

// DecodePNG decodes PNG data into an image.
func DecodePNG(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode PNG: %v", ErrGenerationFailed, err)
	}
	return img, nil
}

// EncodePNG encodes an image as PNG data.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: failed to encode PNG: %v", ErrGenerationFailed, err)
	}
	return buf.Bytes(), nil
}

// NormalizeEquirect decodes PNG data, resamples it to the exact target 2:1
// frame if needed, and re-encodes it. Data that already matches the target
// is returned untouched without a decode/encode round trip being wasted on
// re-encoding.
func NormalizeEquirect(data []byte, targetWidth, targetHeight int) ([]byte, error) {
	img, err := DecodePNG(data)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() == targetWidth && bounds.Dy() == targetHeight {
		return data, nil
	}

	resized, err := EnsureEquirect(img, targetWidth, targetHeight)
	if err != nil {
		return nil, err
	}
	return EncodePNG(resized)
}
