// Package icon derives the web app icons (apple-touch-icon, favicon.ico)
// from the convention's logo image.
package icon

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/spf13/afero"
	"golang.org/x/image/draw"

	appLog "contabile/internal/log"
)

// TouchIconSize is the edge length of the apple-touch-icon, which is also
// the minimum recommended logo size.
const TouchIconSize = 180

// faviconSizes are the edge lengths embedded in favicon.ico.
var faviconSizes = []int{16, 32, 48}

// Load decodes the logo image. A non-square or undersized logo is not an
// error; it is usable but degraded, so the problems are logged as warnings
// the way the invoker sees them once per run.
func Load(fsys afero.Fs, path string) (image.Image, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image file %q: %w", path, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w != h {
		appLog.Warn("logo is not square; it will be stretched", "width", w, "height", h)
	}
	if w < TouchIconSize || h < TouchIconSize {
		appLog.Warn("logo is smaller than 180x180; it will be upscaled and may appear blurry",
			"width", w, "height", h)
	}

	appLog.Debug("logo decoded", "format", format, "width", w, "height", h)
	return img, nil
}

// Write renders images/apple-touch-icon.png and favicon.ico into dest.
func Write(fsys afero.Fs, dest string, logo image.Image) error {
	touch, err := encodePNG(scale(logo, TouchIconSize))
	if err != nil {
		return fmt.Errorf("failed to encode apple-touch-icon: %w", err)
	}
	touchPath := filepath.Join(dest, "images", "apple-touch-icon.png")
	if err := afero.WriteFile(fsys, touchPath, touch, 0o644); err != nil {
		return err
	}

	ico, err := encodeICO(logo, faviconSizes)
	if err != nil {
		return fmt.Errorf("failed to encode favicon: %w", err)
	}
	return afero.WriteFile(fsys, filepath.Join(dest, "favicon.ico"), ico, 0o644)
}

// scale resamples src to a size×size square. Catmull-Rom is the slowest
// and sharpest of the x/image kernels; icon generation is not hot.
func scale(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
