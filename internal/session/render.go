package session

import (
	"time"

	"github.com/ironsheep/keypoint-annotator/internal/annotation"
	"github.com/ironsheep/keypoint-annotator/internal/geometry"
)

// MarkerOpacity is the fill opacity of marker visuals.
const MarkerOpacity = 0.8

// Viewport is the visible region of the display surface. When Auto is set
// the surface fits the whole image and the ranges are ignored.
type Viewport struct {
	Auto   bool       `json:"auto"`
	XRange [2]float64 `json:"x_range"`
	YRange [2]float64 `json:"y_range"`
}

// AutoFit is the viewport that frames the whole image.
var AutoFit = Viewport{Auto: true}

// MarkerVisual is how one marker is drawn.
type MarkerVisual struct {
	Label   string        `json:"label"`
	Path    geometry.Path `json:"path"`
	Color   string        `json:"color"`
	Opacity float64       `json:"opacity"`
}

// Render is the instruction for redrawing the surface after an event.
type Render struct {
	ImageIndex int            `json:"image_index"`
	ImageRef   string         `json:"image_ref"`
	Width      int            `json:"width,omitempty"`
	Height     int            `json:"height,omitempty"`
	Markers    []MarkerVisual `json:"markers"`
	Viewport   Viewport       `json:"viewport"`
}

// Result is the outcome of one dispatched event.
type Result struct {
	// Event is the kind of event that produced this result.
	Event EventKind `json:"-"`

	// Changed is false when the event had no effect on annotations, active
	// label, image or viewport.
	Changed bool `json:"changed"`

	Render      Render           `json:"render"`
	ActiveLabel string           `json:"active_label"`
	ActiveIndex int              `json:"active_index"`
	ImageIndex  int              `json:"image_index"`
	Radius      float64          `json:"radius"`
	State       annotation.State `json:"state"`

	// Warnings name markers that were skipped because their outline could
	// not be fitted.
	Warnings []string `json:"warnings,omitempty"`

	// Saved is set for save events.
	Saved *SaveRecord `json:"saved,omitempty"`
}

// SaveRecord is the side-channel output of a save event.
type SaveRecord struct {
	SessionID  string                    `json:"session_id"`
	ImageIndex int                       `json:"image_index"`
	ImageRef   string                    `json:"image_ref"`
	Centers    map[string]geometry.Point `json:"centers"`
	At         time.Time                 `json:"at"`
}

func visuals(s annotation.State) []MarkerVisual {
	markers := s.Markers()
	out := make([]MarkerVisual, len(markers))
	for i, m := range markers {
		out[i] = MarkerVisual{
			Label:   m.Label,
			Path:    m.Path,
			Color:   m.Color,
			Opacity: MarkerOpacity,
		}
	}
	return out
}
