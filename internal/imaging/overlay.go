package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/gogpu/gg"

	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// Output formats accepted by Encode.
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// EncodedImage is an encoded overlay ready to ship to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Overlay draws every marker of r onto a copy of img, each filled with its
// color at its opacity. When the viewport is not auto-fit the result is
// cropped to the viewport. img is not modified.
func Overlay(img image.Image, r session.Render) (image.Image, error) {
	dc := gg.NewContextForImage(img)
	defer dc.Close()

	for _, m := range r.Markers {
		verts := m.Path.Vertices()
		if len(verts) < 3 {
			continue
		}
		c := gg.Hex(m.Color)
		dc.SetRGBA(c.R, c.G, c.B, m.Opacity)
		dc.MoveTo(verts[0].X, verts[0].Y)
		for _, p := range verts[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("failed to draw marker %s: %w", m.Label, err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("failed to flush overlay: %w", err)
	}

	out := dc.Image()
	if r.Viewport.Auto {
		return out, nil
	}
	return CropToViewport(out, r.Viewport)
}

// Encode writes img to w in the given format and returns its MIME type.
func Encode(w io.Writer, img image.Image, format string) (string, error) {
	switch format {
	case "", FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return "", fmt.Errorf("failed to encode png: %w", err)
		}
		return "image/png", nil
	case FormatWebP:
		if err := webp.Encode(w, img, &webp.Options{Lossless: true}); err != nil {
			return "", fmt.Errorf("failed to encode webp: %w", err)
		}
		return "image/webp", nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// RenderOverlay draws the overlay for r and returns it base64 encoded.
func RenderOverlay(img image.Image, r session.Render, format string) (*EncodedImage, error) {
	out, err := Overlay(img, r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mime, err := Encode(&buf, out, format)
	if err != nil {
		return nil, err
	}

	d := Dimensions(out)
	return &EncodedImage{
		Width:       d.Width,
		Height:      d.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}
