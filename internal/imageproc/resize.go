package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"
)

// CoverResize scales an encoded image to cover the target box and center-crops
// the overflow, returning PNG bytes. Callers treat a failure as recoverable
// and fall back to the unresized image.
func CoverResize(data []byte, targetWidth, targetHeight int) ([]byte, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("imageproc: invalid target size %dx%d", targetWidth, targetHeight)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imageproc: decode for resize: %w", err)
	}

	srcBounds := src.Bounds()
	scale := maxFloat(
		float64(targetWidth)/float64(srcBounds.Dx()),
		float64(targetHeight)/float64(srcBounds.Dy()),
	)
	scaledW := int(float64(srcBounds.Dx())*scale + 0.5)
	scaledH := int(float64(srcBounds.Dy())*scale + 0.5)

	// Center the scaled image; the overflow on either axis is cropped away.
	offsetX := (targetWidth - scaledW) / 2
	offsetY := (targetHeight - scaledH) / 2

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	target := image.Rect(offsetX, offsetY, offsetX+scaledW, offsetY+scaledH)
	draw.CatmullRom.Scale(dst, target, src, srcBounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imageproc: encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
