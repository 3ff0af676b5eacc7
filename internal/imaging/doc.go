// Package imaging supplies the images that annotation sessions walk through
// and renders marker overlays on top of them.
//
// An ImageSet is either every supported file of a directory, sorted by name,
// or the built-in sample set: one base image downsampled by two, its
// vertical flip, and a 30 degree rotation. Decoded images are shared through
// an ImageCache.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Marker paths use the same
// coordinates, so an overlay is drawn without any transform.
//
// # Formats
//
// PNG, JPEG, GIF and WebP are decoded. Overlays are encoded as PNG by
// default or as lossless WebP on request.
//
// # Thread Safety
//
// ImageCache and ImageSet are safe for concurrent use. Overlay never
// modifies the source image.
package imaging
