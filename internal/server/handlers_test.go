package server

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ironsheep/keypoint-annotator/internal/session"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		method   string
		params   string
		wantKind session.EventKind
	}{
		{"event/noop", ``, session.KindNoop},
		{"event/clear", `null`, session.KindClear},
		{"event/save", `{}`, session.KindSave},
		{"event/click", `{"x":1.5,"y":2}`, session.KindClick},
		{"event/navigate", `{"direction":"previous"}`, session.KindNavigate},
		{"event/resize", `{"radius":7}`, session.KindResize},
		{"event/viewport", `{"kind":"autorange"}`, session.KindViewport},
		{"event/select", `{"label":"Nose"}`, session.KindSelect},
		{"event/drag", `{"shape_index":0,"path":"M 0,0 L 4,0 L 4,4 Z"}`, session.KindDrag},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			ev, err := decodeEvent(tt.method, json.RawMessage(tt.params))
			if err != nil {
				t.Fatalf("decodeEvent: %v", err)
			}
			if ev.Kind() != tt.wantKind {
				t.Errorf("kind: got %v, want %v", ev.Kind(), tt.wantKind)
			}
		})
	}
}

func TestDecodeEvent_Payloads(t *testing.T) {
	ev, err := decodeEvent("event/click", json.RawMessage(`{"x":1.5,"y":2}`))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if c := ev.(session.Click); c.X != 1.5 || c.Y != 2 {
		t.Errorf("click: got %+v", c)
	}

	ev, err = decodeEvent("event/drag", json.RawMessage(`{"shape_index":2,"path":"M 0,0 L 4,0 L 4,4 Z"}`))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	d := ev.(session.Drag)
	if d.ShapeIndex != 2 || len(d.Path.Vertices()) != 3 {
		t.Errorf("drag: index %d, %d vertices", d.ShapeIndex, len(d.Path.Vertices()))
	}

	ev, err = decodeEvent("event/viewport", json.RawMessage(`{"kind":"zoom","x_range":[1,9],"y_range":[8,2]}`))
	if err != nil {
		t.Fatalf("decodeEvent: %v", err)
	}
	if v := ev.(session.ViewportChange); v.Mode != session.Zoom || v.YRange != [2]float64{8, 2} {
		t.Errorf("viewport: got %+v", v)
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		params  string
		wantErr error
	}{
		{"click not an object", "event/click", `[1,2]`, errBadParams},
		{"click without params", "event/click", ``, session.ErrInvalidEvent},
		{"click empty object", "event/click", `{}`, session.ErrInvalidEvent},
		{"click without y", "event/click", `{"x":5}`, session.ErrInvalidEvent},
		{"click null x", "event/click", `{"x":null,"y":3}`, session.ErrInvalidEvent},
		{"resize wrong type", "event/resize", `{"radius":"big"}`, errBadParams},
		{"drag without index", "event/drag", `{"path":"M 0,0 L 4,0 L 4,4 Z"}`, session.ErrMalformedDrag},
		{"drag bad path", "event/drag", `{"shape_index":0,"path":"M 0,0 Q 1,1"}`, session.ErrMalformedDrag},
		{"drag bad json", "event/drag", `{"shape_index":"a"}`, errBadParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeEvent(tt.method, json.RawMessage(tt.params))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := decodeEvent("event/fly", nil); !errors.Is(err, errBadParams) {
		t.Errorf("unknown event method: got %v, want %v", err, errBadParams)
	}
}
