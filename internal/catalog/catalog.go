// Package catalog holds the keypoint label vocabulary and the subset of it
// that a labeling session works through.
//
// The full vocabulary is fixed and ordered. At startup a Subset of N labels
// is sampled once with a seeded generator; only those labels can be placed
// during the session, in the sampled order. Each subset position has a stable
// color taken from the plasma palette.
package catalog

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// DefaultSubsetSize is the number of labels sampled per session.
const DefaultSubsetSize = 3

// DefaultKeypoints is the dog pose vocabulary, in catalog order.
var DefaultKeypoints = []string{
	"Nose", "L_Eye", "R_Eye", "L_Ear", "R_Ear", "Throat",
	"Withers", "TailSet", "L_F_Paw", "R_F_Paw", "L_F_Wrist",
	"R_F_Wrist", "L_F_Elbow", "R_F_Elbow", "L_B_Paw", "R_B_Paw",
	"L_B_Hock", "R_B_Hock", "L_B_Stiffle", "R_B_Stiffle",
}

var (
	// ErrOutOfRange is returned for a subset index outside [0, N).
	ErrOutOfRange = errors.New("label index out of range")

	// ErrInvalidCatalog is returned by New for an unusable vocabulary or size.
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Catalog is the read-only label vocabulary plus the sampled Subset.
// It is safe for concurrent use once constructed.
type Catalog struct {
	labels  []string
	subset  []string
	palette []string
	seed    uint64
}

// New samples n labels from labels using seed and builds their palette.
//
// The same (labels, n, seed) always yields the same subset in the same order.
//
// # Errors
//
//   - ErrInvalidCatalog if labels is empty, contains duplicates or empty
//     names, or n is outside [1, len(labels)]
func New(labels []string, n int, seed uint64) (*Catalog, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: empty vocabulary", ErrInvalidCatalog)
	}
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			return nil, fmt.Errorf("%w: empty label name", ErrInvalidCatalog)
		}
		if _, dup := seen[l]; dup {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidCatalog, l)
		}
		seen[l] = struct{}{}
	}
	if n < 1 || n > len(labels) {
		return nil, fmt.Errorf("%w: subset size %d not in [1, %d]", ErrInvalidCatalog, n, len(labels))
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(len(labels))
	subset := make([]string, n)
	for i := 0; i < n; i++ {
		subset[i] = labels[perm[i]]
	}

	return &Catalog{
		labels:  slices.Clone(labels),
		subset:  subset,
		palette: Plasma(n),
		seed:    seed,
	}, nil
}

// Seed returns the seed the subset was sampled with.
func (c *Catalog) Seed() uint64 { return c.seed }

// Labels returns a copy of the full vocabulary.
func (c *Catalog) Labels() []string { return slices.Clone(c.labels) }

// Subset returns a copy of the sampled labels in session order.
func (c *Catalog) Subset() []string { return slices.Clone(c.subset) }

// Len returns the subset size N.
func (c *Catalog) Len() int { return len(c.subset) }

// Label returns the subset label at index i.
func (c *Catalog) Label(i int) (string, error) {
	if i < 0 || i >= len(c.subset) {
		return "", fmt.Errorf("%w: %d (subset size %d)", ErrOutOfRange, i, len(c.subset))
	}
	return c.subset[i], nil
}

// Index returns the subset position of label.
func (c *Catalog) Index(label string) (int, bool) {
	i := slices.Index(c.subset, label)
	return i, i >= 0
}

// ColorOf returns the "#rrggbb" color of subset index i.
func (c *Catalog) ColorOf(i int) (string, error) {
	if i < 0 || i >= len(c.palette) {
		return "", fmt.Errorf("%w: %d (subset size %d)", ErrOutOfRange, i, len(c.palette))
	}
	return c.palette[i], nil
}

// Advance returns the index following i. Advancing from the last label
// stays on the last label.
func (c *Catalog) Advance(i int) int {
	return min(i+1, len(c.subset)-1)
}

// Reset returns the index of the first subset label.
func (c *Catalog) Reset() int { return 0 }
