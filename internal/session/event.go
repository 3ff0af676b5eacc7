package session

import (
	"fmt"
	"math"

	"github.com/ironsheep/keypoint-annotator/internal/geometry"
)

// EventKind tags the variant of an Event.
type EventKind int

const (
	KindNoop     EventKind = iota // nothing actionable happened
	KindClick                     // click on the image surface
	KindDrag                      // marker outline dragged or reshaped
	KindNavigate                  // next / previous image
	KindClear                     // drop all markers of the current image
	KindResize                    // marker radius slider moved
	KindSave                      // emit fitted centers
	KindViewport                  // zoom or autorange of the display surface
	KindSelect                    // pick the active label explicitly
)

var kindNames = map[EventKind]string{
	KindNoop:     "noop",
	KindClick:    "click",
	KindDrag:     "drag",
	KindNavigate: "navigate",
	KindClear:    "clear",
	KindResize:   "resize",
	KindSave:     "save",
	KindViewport: "viewport",
	KindSelect:   "select",
}

func (k EventKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one external input to the dispatcher. The set of variants is
// closed: Noop, Click, Drag, Navigate, Clear, Resize, Save, ViewportChange
// and Select.
type Event interface {
	Kind() EventKind
	// Validate checks the payload on its own, without session state.
	Validate() error
}

// Noop is delivered when the surface reports no actionable trigger.
type Noop struct{}

// Click places a marker for the active label at (X, Y).
type Click struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Drag replaces the outline of the marker at ShapeIndex.
type Drag struct {
	ShapeIndex int           `json:"shape_index"`
	Path       geometry.Path `json:"path"`
}

// Direction selects the carousel step of a Navigate event.
type Direction string

const (
	Next     Direction = "next"
	Previous Direction = "previous"
)

// Navigate moves the carousel.
type Navigate struct {
	Direction Direction `json:"direction"`
}

// Clear drops every marker on the current image.
type Clear struct{}

// Resize redraws every marker with a new radius and makes it the radius of
// future clicks.
type Resize struct {
	Radius float64 `json:"radius"`
}

// Save emits the fitted center of every marker.
type Save struct{}

// ViewportKind distinguishes zooming from resetting the framing.
type ViewportKind string

const (
	Zoom      ViewportKind = "zoom"
	AutoRange ViewportKind = "autorange"
)

// ViewportChange is a display-only change of the visible region.
type ViewportChange struct {
	Mode   ViewportKind `json:"kind"`
	XRange [2]float64   `json:"x_range"`
	YRange [2]float64   `json:"y_range"`
}

// Select makes Label the active label.
type Select struct {
	Label string `json:"label"`
}

func (Noop) Kind() EventKind           { return KindNoop }
func (Click) Kind() EventKind          { return KindClick }
func (Drag) Kind() EventKind           { return KindDrag }
func (Navigate) Kind() EventKind       { return KindNavigate }
func (Clear) Kind() EventKind          { return KindClear }
func (Resize) Kind() EventKind         { return KindResize }
func (Save) Kind() EventKind           { return KindSave }
func (ViewportChange) Kind() EventKind { return KindViewport }
func (Select) Kind() EventKind         { return KindSelect }

func (Noop) Validate() error  { return nil }
func (Clear) Validate() error { return nil }
func (Save) Validate() error  { return nil }

func (e Click) Validate() error {
	if !finite(e.X) || !finite(e.Y) {
		return fmt.Errorf("%w: click at non-finite point (%v, %v)", ErrInvalidEvent, e.X, e.Y)
	}
	return nil
}

func (e Drag) Validate() error {
	if len(e.Path.Vertices()) < 3 {
		return fmt.Errorf("%w: drag path has %d vertices", ErrMalformedDrag, len(e.Path.Vertices()))
	}
	for _, p := range e.Path {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: drag path has non-finite vertex", ErrMalformedDrag)
		}
	}
	return nil
}

func (e Navigate) Validate() error {
	switch e.Direction {
	case Next, Previous:
		return nil
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidEvent, e.Direction)
	}
}

func (e Resize) Validate() error {
	if !finite(e.Radius) || e.Radius <= 0 {
		return fmt.Errorf("%w: radius must be a positive number, got %v", ErrInvalidEvent, e.Radius)
	}
	return nil
}

func (e ViewportChange) Validate() error {
	switch e.Mode {
	case AutoRange:
		return nil
	case Zoom:
		for _, r := range [][2]float64{e.XRange, e.YRange} {
			if !finite(r[0]) || !finite(r[1]) || r[0] == r[1] {
				return fmt.Errorf("%w: zoom range %v is empty or non-finite", ErrInvalidEvent, r)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown viewport kind %q", ErrInvalidEvent, e.Mode)
	}
}

func (e Select) Validate() error {
	if e.Label == "" {
		return fmt.Errorf("%w: empty label", ErrInvalidEvent)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
