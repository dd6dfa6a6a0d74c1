package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"math"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxWidth caps the width of uploaded images.
	MaxWidth = 1200
	// JPEGQuality is the re-encoding quality (0.8 on a 0..1 scale).
	JPEGQuality = 80
	// MaxPixels bounds the decoded size of a source image.
	MaxPixels = 40_000_000
)

// ErrTooLarge is returned by Compress for images above MaxPixels.
var ErrTooLarge = errors.New("image too large to decode")

// Compressed is the re-encoded image ready for transport.
type Compressed struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// TargetSize returns the output dimensions for a w×h source: the width is
// capped at MaxWidth and the height follows the aspect ratio.
func TargetSize(w, h int) (int, int) {
	if w <= MaxWidth {
		return w, h
	}
	nh := int(math.Round(float64(h) * MaxWidth / float64(w)))
	if nh < 1 {
		nh = 1
	}
	return MaxWidth, nh
}

// Compress decodes data, scales it down to MaxWidth when wider and re-encodes
// it as JPEG. Transparent areas are flattened onto white. Dimensions are read
// from the header first and images above MaxPixels are not decoded.
func Compress(data []byte) (Compressed, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Compressed{}, fmt.Errorf("failed to read image header: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Compressed{}, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Compressed{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	w, h := TargetSize(b.Dx(), b.Dy())

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Compressed{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return Compressed{Data: buf.Bytes(), ContentType: "image/jpeg", Width: w, Height: h}, nil
}
