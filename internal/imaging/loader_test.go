package imaging

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/chai2010/webp"
)

// createInMemoryImage returns a width x height image filled with c.
func createInMemoryImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createPatternImage returns an image with red top-left, green top-right,
// blue bottom-left and white bottom-right quadrants.
func createPatternImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.Color
			switch {
			case x < width/2 && y < height/2:
				c = color.RGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.RGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.RGBA{0, 0, 255, 255}
			default:
				c = color.RGBA{255, 255, 255, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

// writeTestPNG encodes img as dir/name and returns the path.
func writeTestPNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", name, err)
	}
	return path
}

func TestNewImageCache(t *testing.T) {
	cache := NewImageCache()
	if cache == nil {
		t.Fatal("NewImageCache returned nil")
	}
	if _, err := cache.Load(filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("empty cache should fail for a missing file")
	}
}

func TestImageCache_Load(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "red.png", createInMemoryImage(40, 30, color.RGBA{255, 0, 0, 255}))
	cache := NewImageCache()

	img, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if d := Dimensions(img); d.Width != 40 || d.Height != 30 {
		t.Errorf("dimensions = %dx%d, want 40x30", d.Width, d.Height)
	}

	again, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if again != img {
		t.Error("second Load did not return the cached image")
	}
}

func TestImageCache_LoadErrors(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	bogusWebP := filepath.Join(dir, "bogus.webp")
	if err := os.WriteFile(bogusWebP, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.png")},
		{"invalid png", bogus},
		{"invalid webp", bogusWebP},
	}

	cache := NewImageCache()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := cache.Load(tt.path); err == nil {
				t.Error("expected error")
			}
		})
	}

	// A failed load is not cached: once the file is valid it decodes.
	writeTestPNG(t, dir, "bogus.png", createInMemoryImage(5, 5, color.White))
	img, err := cache.Load(bogus)
	if err != nil {
		t.Fatalf("Load after fixing the file failed: %v", err)
	}
	if d := Dimensions(img); d.Width != 5 {
		t.Errorf("width = %d, want 5", d.Width)
	}
}

func TestImageCache_LoadWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.webp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := webp.Encode(f, createPatternImage(20, 20), &webp.Options{Lossless: true}); err != nil {
		f.Close()
		t.Fatalf("webp.Encode failed: %v", err)
	}
	f.Close()

	img, err := NewImageCache().Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	r, g, b, _ := img.At(2, 2).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("top-left pixel = (%d,%d,%d), want red", r>>8, g>>8, b>>8)
	}
}

func TestImageCache_ConcurrentLoad(t *testing.T) {
	path := writeTestPNG(t, t.TempDir(), "c.png", createPatternImage(16, 16))
	cache := NewImageCache()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Load failed: %v", err)
	}
	a, _ := cache.Load(path)
	b, _ := cache.Load(path)
	if a != b {
		t.Error("Load after concurrent loads did not return the cached image")
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"a.png", true},
		{"b.JPG", true},
		{"c.jpeg", true},
		{"d.gif", true},
		{"e.webp", true},
		{"f.bmp", false},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := isSupported(tt.name); got != tt.want {
			t.Errorf("isSupported(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
