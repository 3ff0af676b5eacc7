// Package carousel implements the cyclic index over the fixed image sequence.
package carousel

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a carousel is built over zero images.
var ErrEmpty = errors.New("carousel needs at least one image")

// ErrOutOfRange is returned for an index outside [0, Len()).
var ErrOutOfRange = errors.New("image index out of range")

// Carousel is an ordered, cyclic index over length images. The zero value
// is not usable; construct with New.
type Carousel struct {
	length int
}

// New returns a carousel over length images.
func New(length int) (Carousel, error) {
	if length <= 0 {
		return Carousel{}, ErrEmpty
	}
	return Carousel{length: length}, nil
}

// Len returns the number of images.
func (c Carousel) Len() int { return c.length }

// Next returns (i + 1) mod Len().
func (c Carousel) Next(i int) int {
	return mod(i+1, c.length)
}

// Previous returns (i - 1) mod Len(), wrapping from 0 to the last image.
func (c Carousel) Previous(i int) int {
	return mod(i-1, c.length)
}

// Check validates that i addresses an image.
func (c Carousel) Check(i int) error {
	if i < 0 || i >= c.length {
		return fmt.Errorf("%w: %d (length %d)", ErrOutOfRange, i, c.length)
	}
	return nil
}

// mod is the always non-negative remainder.
func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
