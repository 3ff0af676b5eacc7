// Package annotation models the markers placed on the image currently being
// labeled.
//
// State is an immutable value: every change returns a new State and leaves
// the receiver untouched, so a caller can replace its state wholesale and
// keep the previous one when a transition fails half way.
package annotation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/keypoint-annotator/internal/geometry"
)

var (
	// ErrDuplicateLabel is returned when a second marker for a label is added.
	ErrDuplicateLabel = errors.New("label already has a marker")

	// ErrNoSuchMarker is returned for a marker index outside the state.
	ErrNoSuchMarker = errors.New("no marker at index")
)

// Marker is one placed circular annotation.
type Marker struct {
	Label  string        `json:"name"`
	Path   geometry.Path `json:"path"`
	Color  string        `json:"color"`
	Radius float64       `json:"radius"`
}

// Center fits the marker's center from its current outline.
func (m Marker) Center() (geometry.Point, error) {
	return geometry.CircleCenter(m.Path)
}

func (m Marker) clone() Marker {
	m.Path = m.Path.Clone()
	return m
}

// State is the ordered set of markers for one image. Labels are unique.
// The zero value is an empty state.
type State struct {
	markers []Marker
}

// Len returns the number of markers.
func (s State) Len() int { return len(s.markers) }

// Markers returns a copy of the markers in placement order.
func (s State) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	for i, m := range s.markers {
		out[i] = m.clone()
	}
	return out
}

// At returns the marker at index i.
func (s State) At(i int) (Marker, error) {
	if i < 0 || i >= len(s.markers) {
		return Marker{}, fmt.Errorf("%w: %d (have %d)", ErrNoSuchMarker, i, len(s.markers))
	}
	return s.markers[i].clone(), nil
}

// IndexOf returns the index of the marker for label, or -1.
func (s State) IndexOf(label string) int {
	for i, m := range s.markers {
		if m.Label == label {
			return i
		}
	}
	return -1
}

// Has reports whether label already has a marker.
func (s State) Has(label string) bool {
	return s.IndexOf(label) >= 0
}

// Labels returns the marker labels in placement order.
func (s State) Labels() []string {
	out := make([]string, len(s.markers))
	for i, m := range s.markers {
		out[i] = m.Label
	}
	return out
}

// With returns a new state with m appended.
func (s State) With(m Marker) (State, error) {
	if s.Has(m.Label) {
		return s, fmt.Errorf("%w: %s", ErrDuplicateLabel, m.Label)
	}
	next := make([]Marker, len(s.markers), len(s.markers)+1)
	copy(next, s.markers)
	return State{markers: append(next, m.clone())}, nil
}

// WithPath returns a new state where marker i has path p and radius r.
// Label and color are unchanged.
func (s State) WithPath(i int, p geometry.Path, r float64) (State, error) {
	if i < 0 || i >= len(s.markers) {
		return s, fmt.Errorf("%w: %d (have %d)", ErrNoSuchMarker, i, len(s.markers))
	}
	next := make([]Marker, len(s.markers))
	copy(next, s.markers)
	next[i].Path = p.Clone()
	next[i].Radius = r
	return State{markers: next}, nil
}

// MarshalJSON encodes the state as an array of markers.
func (s State) MarshalJSON() ([]byte, error) {
	if s.markers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.markers)
}

// UnmarshalJSON decodes an array of markers, rejecting duplicate labels.
func (s *State) UnmarshalJSON(data []byte) error {
	var markers []Marker
	if err := json.Unmarshal(data, &markers); err != nil {
		return err
	}
	var next State
	for _, m := range markers {
		var err error
		if next, err = next.With(m); err != nil {
			return err
		}
	}
	*s = next
	return nil
}
