package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// Crop extracts the rectangle (x1,y1)-(x2,y2) from img.
func Crop(img image.Image, x1, y1, x2, y2 int) (image.Image, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, image.Rect(x1, y1, x2, y2)), nil
}

// CropToViewport crops img to the visible region of vp. Ranges may be given
// in either order (the surface reports y ranges top-down) and are clamped to
// the image. An auto-fit viewport returns img unchanged.
func CropToViewport(img image.Image, vp session.Viewport) (image.Image, error) {
	if vp.Auto {
		return img, nil
	}
	b := img.Bounds()
	x1, x2 := span(vp.XRange, b.Min.X, b.Max.X)
	y1, y2 := span(vp.YRange, b.Min.Y, b.Max.Y)
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("viewport x %v y %v does not overlap the image", vp.XRange, vp.YRange)
	}
	return Crop(img, x1, y1, x2, y2)
}

func span(r [2]float64, lo, hi int) (int, int) {
	a, b := math.Min(r[0], r[1]), math.Max(r[0], r[1])
	from := max(lo, int(math.Floor(a)))
	to := min(hi, int(math.Ceil(b)))
	return from, to
}
