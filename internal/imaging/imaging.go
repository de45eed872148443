// Package imaging converts an uploaded photo into the small JPEG data URL
// stored as a day's cover photo.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// Registered decoders for image.Decode.
	_ "image/gif"
	_ "image/png"

	"github.com/pkordes/jetjot/internal/domain"
)

const (
	MaxWidth  = 300
	MaxHeight = 200
	Quality   = 38
)

const dataURLPrefix = "data:image/jpeg;base64,"

// EncodeDataURL decodes a JPEG, PNG or GIF, shrinks it to fit inside
// MaxWidth x MaxHeight keeping the aspect ratio, and returns it as a JPEG
// data URL. Smaller images are never enlarged.
func EncodeDataURL(r io.Reader) (string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("imaging.EncodeDataURL: %w: unsupported or corrupt image", domain.ErrValidation)
	}

	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), MaxWidth, MaxHeight)
	if w != b.Dx() || h != b.Dy() {
		src = shrink(src, w, h)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("imaging.EncodeDataURL: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Fit returns the largest size with the aspect ratio of w x h that fits in
// maxW x maxH, or w x h itself when it already fits.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	if w*maxH > h*maxW {
		nh := h * maxW / w
		return maxW, max(nh, 1)
	}
	nw := w * maxH / h
	return max(nw, 1), maxH
}

// shrink box-filters src down to w x h. Every destination pixel is the mean
// of the source pixels it covers.
func shrink(src image.Image, w, h int) *image.RGBA {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		y0 := b.Min.Y + y*sh/h
		y1 := max(b.Min.Y+(y+1)*sh/h, y0+1)
		for x := 0; x < w; x++ {
			x0 := b.Min.X + x*sw/w
			x1 := max(b.Min.X+(x+1)*sw/w, x0+1)

			var r, g, bl, a, n uint64
			for sy := y0; sy < y1; sy++ {
				for sx := x0; sx < x1; sx++ {
					cr, cg, cb, ca := src.At(sx, sy).RGBA()
					r += uint64(cr)
					g += uint64(cg)
					bl += uint64(cb)
					a += uint64(ca)
					n++
				}
			}
			dst.Set(x, y, color.RGBA64{
				R: uint16(r / n),
				G: uint16(g / n),
				B: uint16(bl / n),
				A: uint16(a / n),
			})
		}
	}
	return dst
}
