package imaging

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenDir(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "b.png", createInMemoryImage(10, 8, color.White))
	writeTestPNG(t, dir, "a.png", createInMemoryImage(20, 16, color.Black))
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	set, err := OpenDir(dir, NewImageCache())
	if err != nil {
		t.Fatalf("OpenDir failed: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("Len = %d, want 2", set.Len())
	}
	if set.Ref(0) != "a.png" || set.Ref(1) != "b.png" {
		t.Errorf("refs = %q, %q; want sorted", set.Ref(0), set.Ref(1))
	}

	w, h, err := set.Size(1)
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if w != 10 || h != 8 {
		t.Errorf("Size(1) = %dx%d, want 10x8", w, h)
	}
}

func TestOpenDir_Errors(t *testing.T) {
	empty := t.TempDir()
	if _, err := OpenDir(empty, NewImageCache()); !errors.Is(err, ErrNoImages) {
		t.Errorf("empty dir err = %v, want ErrNoImages", err)
	}
	if _, err := OpenDir(filepath.Join(empty, "missing"), NewImageCache()); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestImageSet_OutOfRange(t *testing.T) {
	set := SampleSet(createInMemoryImage(8, 8, color.White))
	if _, err := set.ImageAt(3); err == nil {
		t.Error("ImageAt(3) should fail")
	}
	if _, err := set.ImageAt(-1); err == nil {
		t.Error("ImageAt(-1) should fail")
	}
	if set.Ref(5) != "" {
		t.Errorf("Ref(5) = %q, want empty", set.Ref(5))
	}
}

func TestSampleSet_HoldsImages(t *testing.T) {
	set := SampleSet(createPatternImage(20, 20))
	if set.cache != nil {
		t.Fatal("sample set should not need a cache")
	}
	for i := 0; i < set.Len(); i++ {
		first, err := set.ImageAt(i)
		if err != nil {
			t.Fatalf("ImageAt(%d) failed: %v", i, err)
		}
		again, _ := set.ImageAt(i)
		if first != again {
			t.Errorf("ImageAt(%d) returned a different image on the second call", i)
		}
	}
	if set.Ref(0) != "sample-downsampled" || set.Ref(2) != "sample-rotated" {
		t.Errorf("refs = %q, %q", set.Ref(0), set.Ref(2))
	}
}

func TestOpenDir_SharesCache(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, dir, "a.png", createInMemoryImage(6, 6, color.White))
	cache := NewImageCache()

	s1, err := OpenDir(dir, cache)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := OpenDir(dir, cache)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s1.ImageAt(0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := s2.ImageAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("sets over one cache should share decoded images")
	}
}

func TestSampleVariants(t *testing.T) {
	base := createPatternImage(100, 60)
	variants := SampleVariants(base)
	if len(variants) != 3 {
		t.Fatalf("got %d variants, want 3", len(variants))
	}
	for i, v := range variants {
		if d := Dimensions(v); d.Width != 50 || d.Height != 30 {
			t.Errorf("variant %d is %dx%d, want 50x30", i, d.Width, d.Height)
		}
	}

	small, flipped, rotated := variants[0], variants[1], variants[2]

	// Red top-left quadrant moves to the bottom-left when flipped vertically.
	if r, _, b, _ := small.At(2, 2).RGBA(); r>>8 != 255 || b>>8 != 0 {
		t.Errorf("downsampled top-left is not red")
	}
	if r, _, b, _ := flipped.At(2, 27).RGBA(); r>>8 != 255 || b>>8 != 0 {
		t.Errorf("flipped bottom-left is not red")
	}
	if _, _, b, _ := flipped.At(2, 2).RGBA(); b>>8 != 255 {
		t.Errorf("flipped top-left is not blue")
	}

	// Rotating without resizing the bounds exposes transparent corners.
	if _, _, _, a := rotated.At(0, 0).RGBA(); a != 0 {
		t.Errorf("rotated corner alpha = %d, want 0", a)
	}
	if _, _, _, a := rotated.At(25, 15).RGBA(); a == 0 {
		t.Error("rotated center is transparent")
	}
}

func TestLoadSampleSet(t *testing.T) {
	set, err := LoadSampleSet("")
	if err != nil {
		t.Fatalf("LoadSampleSet failed: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
	for i := 0; i < 3; i++ {
		w, h, err := set.Size(i)
		if err != nil {
			t.Fatalf("Size(%d) failed: %v", i, err)
		}
		if w != 320 || h != 240 {
			t.Errorf("image %d is %dx%d, want 320x240", i, w, h)
		}
	}

	path := writeTestPNG(t, t.TempDir(), "base.png", createPatternImage(40, 20))
	set, err = LoadSampleSet(path)
	if err != nil {
		t.Fatalf("LoadSampleSet(path) failed: %v", err)
	}
	if w, h, _ := set.Size(2); w != 20 || h != 10 {
		t.Errorf("rotated sample is %dx%d, want 20x10", w, h)
	}

	if _, err := LoadSampleSet(filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("expected error for missing base image")
	}
}

func TestTestCard(t *testing.T) {
	img := TestCard(64, 48)
	if d := Dimensions(img); d.Width != 64 || d.Height != 48 {
		t.Fatalf("TestCard is %dx%d", d.Width, d.Height)
	}
	// Grid lines are dark, cells are not.
	if r, _, _, _ := img.At(0, 10).RGBA(); r>>8 != 40 {
		t.Errorf("grid pixel red = %d, want 40", r>>8)
	}
	lr, lg, lb, _ := img.At(5, 5).RGBA()
	rr, rg, rb, _ := img.At(60, 5).RGBA()
	if lr == rr && lg == rg && lb == rb {
		t.Error("gradient has the same color at both ends")
	}
}
