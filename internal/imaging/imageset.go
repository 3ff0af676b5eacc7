package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrNoImages is returned when an image directory holds no supported files.
var ErrNoImages = errors.New("no images found")

// SampleRotation is the rotation, in degrees counter-clockwise, of the third
// built-in sample variant.
const SampleRotation = 30.0

// ImageSet is the ordered, fixed image sequence sessions walk through.
// Files are decoded lazily through the shared ImageCache; generated images
// are held by the set itself.
type ImageSet struct {
	cache  *ImageCache
	paths  []string      // file paths, empty for generated images
	images []image.Image // generated images, nil for files
	refs   []string      // display names
}

// OpenDir builds an image set from every supported file directly inside
// dir, sorted by file name.
func OpenDir(dir string, cache *ImageCache) (*ImageSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isSupported(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, dir)
	}
	sort.Strings(names)

	set := &ImageSet{cache: cache}
	for _, n := range names {
		set.paths = append(set.paths, filepath.Join(dir, n))
		set.images = append(set.images, nil)
		set.refs = append(set.refs, n)
	}
	return set, nil
}

// SampleSet builds the built-in three-image set from base: base downsampled
// by two, its vertical flip, and a 30 degree rotation.
func SampleSet(base image.Image) *ImageSet {
	variants := SampleVariants(base)
	return &ImageSet{
		paths:  make([]string, len(variants)),
		images: variants,
		refs:   []string{"sample-downsampled", "sample-flipped", "sample-rotated"},
	}
}

// LoadSampleSet decodes the base image at path and builds the sample set
// from it. An empty path uses the generated test card.
func LoadSampleSet(path string) (*ImageSet, error) {
	if path == "" {
		return SampleSet(TestCard(640, 480)), nil
	}
	base, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return SampleSet(base), nil
}

// SampleVariants returns the three sample variants of base. The flip and
// rotation are applied to the downsampled image so all three share a size.
func SampleVariants(base image.Image) []image.Image {
	b := base.Bounds()
	small := imaging.Resize(base, max(1, b.Dx()/2), max(1, b.Dy()/2), imaging.NearestNeighbor)
	flipped := transform.FlipV(small)
	// bild rotates clockwise for positive angles.
	rotated := transform.Rotate(small, -SampleRotation, &transform.RotationOptions{ResizeBounds: false})
	return []image.Image{small, flipped, rotated}
}

// TestCard generates a w x h image with a Lab color gradient and a dark
// grid every 32 pixels, used when no image is configured.
func TestCard(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	left, _ := colorful.Hex("#1f3a93")
	right, _ := colorful.Hex("#f5d76e")
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x%32 == 0 || y%32 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 40, G: 40, B: 40, A: 255})
				continue
			}
			t := float64(x) / float64(max(1, w-1))
			c := left.BlendLab(right, t).Clamped()
			shade := 1 - 0.35*float64(y)/float64(max(1, h-1))
			r, g, bl := c.RGB255()
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(float64(r) * shade),
				G: uint8(float64(g) * shade),
				B: uint8(float64(bl) * shade),
				A: 255,
			})
		}
	}
	return img
}

// Len returns the number of images.
func (s *ImageSet) Len() int { return len(s.refs) }

// Ref returns the display name of image i.
func (s *ImageSet) Ref(i int) string {
	if i < 0 || i >= len(s.refs) {
		return ""
	}
	return s.refs[i]
}

// ImageAt returns the decoded image i.
func (s *ImageSet) ImageAt(i int) (image.Image, error) {
	if i < 0 || i >= len(s.refs) {
		return nil, fmt.Errorf("image index %d out of range [0, %d)", i, len(s.refs))
	}
	if img := s.images[i]; img != nil {
		return img, nil
	}
	return s.cache.Load(s.paths[i])
}

// Size returns the pixel dimensions of image i.
func (s *ImageSet) Size(i int) (int, int, error) {
	img, err := s.ImageAt(i)
	if err != nil {
		return 0, 0, err
	}
	d := Dimensions(img)
	return d.Width, d.Height, nil
}
