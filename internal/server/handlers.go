package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/keypoint-annotator/internal/annotation"
	"github.com/ironsheep/keypoint-annotator/internal/geometry"
	"github.com/ironsheep/keypoint-annotator/internal/imaging"
	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// errBadParams marks params that could not be decoded.
var errBadParams = errors.New("invalid params")

// sessionMethods are the methods that act on the caller's session.
var sessionMethods = map[string]bool{
	"session/state":   true,
	"session/restore": true,
	"image/render":    true,
	"event/noop":      true,
	"event/click":     true,
	"event/drag":      true,
	"event/navigate":  true,
	"event/clear":     true,
	"event/resize":    true,
	"event/save":      true,
	"event/viewport":  true,
	"event/select":    true,
}

func isSessionMethod(method string) bool { return sessionMethods[method] }

// callSessionMethod runs one session method. The caller holds the
// session's lock.
func (s *Server) callSessionMethod(ctx context.Context, sess *session.Session, method string, params json.RawMessage) (interface{}, error) {
	switch method {
	case "session/state":
		return sess.Snapshot()
	case "session/restore":
		return s.handleRestore(sess, params)
	case "image/render":
		return s.handleImageRender(sess, params)
	default:
		ev, err := decodeEvent(method, params)
		if err != nil {
			s.metrics.event(ctx, strings.TrimPrefix(method, "event/"), err)
			s.log.Error().Str("session", sess.ID()).Str("method", method).Err(err).Msg("event rejected")
			return nil, err
		}
		return s.dispatch(ctx, sess, ev)
	}
}

func (s *Server) dispatch(ctx context.Context, sess *session.Session, ev session.Event) (interface{}, error) {
	kind := ev.Kind().String()
	res, err := sess.Dispatch(ctx, ev)
	s.metrics.event(ctx, kind, err)
	if err != nil {
		s.log.Error().Str("session", sess.ID()).Str("event", kind).Err(err).Msg("event rejected")
		return nil, err
	}
	s.log.Debug().
		Str("session", sess.ID()).
		Str("event", kind).
		Bool("changed", res.Changed).
		Int("image", res.ImageIndex).
		Int("markers", res.State.Len()).
		Str("active", res.ActiveLabel).
		Msg("event processed")
	for _, w := range res.Warnings {
		s.log.Warn().Str("session", sess.ID()).Str("event", kind).Msg(w)
	}
	return res, nil
}

// clickArgs tells a missing coordinate apart from zero.
type clickArgs struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// dragArgs carries the outline as the surface sends it: an SVG path string.
type dragArgs struct {
	ShapeIndex *int   `json:"shape_index"`
	Path       string `json:"path"`
}

// decodeEvent builds the event for an event/* method from its params.
func decodeEvent(method string, params json.RawMessage) (session.Event, error) {
	switch method {
	case "event/noop":
		return session.Noop{}, nil
	case "event/clear":
		return session.Clear{}, nil
	case "event/save":
		return session.Save{}, nil
	case "event/click":
		var a clickArgs
		if err := decodeParams(params, &a); err != nil {
			return nil, err
		}
		if a.X == nil || a.Y == nil {
			return nil, fmt.Errorf("%w: click needs both x and y", session.ErrInvalidEvent)
		}
		return session.Click{X: *a.X, Y: *a.Y}, nil
	case "event/navigate":
		var ev session.Navigate
		if err := decodeParams(params, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case "event/resize":
		var ev session.Resize
		if err := decodeParams(params, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case "event/viewport":
		var ev session.ViewportChange
		if err := decodeParams(params, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case "event/select":
		var ev session.Select
		if err := decodeParams(params, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case "event/drag":
		var a dragArgs
		if err := decodeParams(params, &a); err != nil {
			return nil, err
		}
		if a.ShapeIndex == nil {
			return nil, fmt.Errorf("%w: shape_index is required", session.ErrMalformedDrag)
		}
		path, err := geometry.ParsePath(a.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", session.ErrMalformedDrag, err)
		}
		return session.Drag{ShapeIndex: *a.ShapeIndex, Path: path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event method %s", errBadParams, method)
	}
}

// decodeParams unmarshals params into v. Absent params leave v zero.
func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", errBadParams, err)
	}
	return nil
}

type restoreArgs struct {
	State annotation.State `json:"state"`
}

func (s *Server) handleRestore(sess *session.Session, params json.RawMessage) (interface{}, error) {
	var a restoreArgs
	if err := json.Unmarshal(params, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", session.ErrMalformedState, err)
	}
	res, err := sess.Restore(a.State)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("session", sess.ID()).Int("markers", res.State.Len()).Msg("state restored")
	return res, nil
}

type imageRenderArgs struct {
	Format string `json:"format"`
}

func (s *Server) handleImageRender(sess *session.Session, params json.RawMessage) (interface{}, error) {
	var a imageRenderArgs
	if err := decodeParams(params, &a); err != nil {
		return nil, err
	}
	switch a.Format {
	case "", imaging.FormatPNG, imaging.FormatWebP:
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", errBadParams, a.Format)
	}

	snap, err := sess.Snapshot()
	if err != nil {
		return nil, err
	}
	img, err := s.images.ImageAt(snap.ImageIndex)
	if err != nil {
		return nil, err
	}
	return imaging.RenderOverlay(img, snap.Render, a.Format)
}

// catalogInfo describes the session labels and their colors.
type catalogInfo struct {
	Labels     []string `json:"labels"`
	Colors     []string `json:"colors"`
	Vocabulary []string `json:"vocabulary"`
	Seed       uint64   `json:"seed"`
}

func (s *Server) handleCatalogList(req *RPCRequest) *RPCResponse {
	info := catalogInfo{
		Labels:     s.catalog.Subset(),
		Vocabulary: s.catalog.Labels(),
		Seed:       s.catalog.Seed(),
	}
	for i := range info.Labels {
		c, _ := s.catalog.ColorOf(i)
		info.Colors = append(info.Colors, c)
	}
	return s.resultResponse(req.ID, info)
}
