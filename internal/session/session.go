package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ironsheep/keypoint-annotator/internal/annotation"
	"github.com/ironsheep/keypoint-annotator/internal/carousel"
	"github.com/ironsheep/keypoint-annotator/internal/catalog"
	"github.com/ironsheep/keypoint-annotator/internal/geometry"
)

// ImageSource is the ordered image sequence a session walks through.
type ImageSource interface {
	Len() int
	Ref(i int) string
}

// sizer is implemented by image sources that know pixel dimensions.
type sizer interface {
	Size(i int) (width, height int, err error)
}

// SaveSink consumes save records. Persistence is up to the implementation.
type SaveSink interface {
	Record(ctx context.Context, rec SaveRecord) error
}

// Config holds the marker geometry settings of a session.
type Config struct {
	Radius    float64 // radius of new markers until the first resize
	MinRadius float64 // resize requests are clamped to [MinRadius, MaxRadius]
	MaxRadius float64
	Points    int // vertices per marker outline
}

// DefaultConfig matches the annotation surface slider: 3..36, start at 12.
func DefaultConfig() Config {
	return Config{
		Radius:    12,
		MinRadius: 3,
		MaxRadius: 36,
		Points:    geometry.DefaultPoints,
	}
}

// Validate checks that the radius bounds are usable.
func (c Config) Validate() error {
	if !(c.MinRadius > 0) || c.MaxRadius < c.MinRadius {
		return fmt.Errorf("radius bounds [%v, %v] invalid", c.MinRadius, c.MaxRadius)
	}
	if c.Radius < c.MinRadius || c.Radius > c.MaxRadius {
		return fmt.Errorf("radius %v outside [%v, %v]", c.Radius, c.MinRadius, c.MaxRadius)
	}
	if c.Points < 3 {
		return fmt.Errorf("marker points must be >= 3, got %d", c.Points)
	}
	return nil
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for per-event diagnostics.
func WithLogger(l zerolog.Logger) Option { return func(s *Session) { s.log = l } }

// WithClock replaces time.Now for save timestamps.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// Session is the state unit owned by one labeling session: the carousel
// position, the markers of the current image, the active label, the marker
// radius and the viewport.
//
// Dispatch is the only way to change it. A Session is not safe for
// concurrent use; callers serialize events per session.
type Session struct {
	id       string
	cfg      Config
	catalog  *catalog.Catalog
	carousel carousel.Carousel
	images   ImageSource
	sink     SaveSink
	log      zerolog.Logger
	now      func() time.Time

	imageIndex int
	active     int
	radius     float64
	state      annotation.State
	viewport   Viewport

	aborted error
}

// New creates a session on image 0 with no markers and the first subset
// label active.
func New(id string, cfg Config, cat *catalog.Catalog, images ImageSource, sink SaveSink, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, errors.New("session needs a catalog")
	}
	if images == nil {
		return nil, errors.New("session needs an image source")
	}
	car, err := carousel.New(images.Len())
	if err != nil {
		return nil, err
	}

	s := &Session{
		id:       id,
		cfg:      cfg,
		catalog:  cat,
		carousel: car,
		images:   images,
		sink:     sink,
		log:      zerolog.Nop(),
		now:      time.Now,
		active:   cat.Reset(),
		radius:   cfg.Radius,
		viewport: AutoFit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Aborted returns the invariant violation that aborted the session, or nil.
func (s *Session) Aborted() error { return s.aborted }

// ImageIndex returns the current carousel position.
func (s *Session) ImageIndex() int { return s.imageIndex }

// State returns the markers of the current image.
func (s *Session) State() annotation.State { return s.state }

// Snapshot returns the current state as an unchanged Result.
func (s *Session) Snapshot() (Result, error) {
	if s.aborted != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSessionAborted, s.aborted)
	}
	if err := s.checkInvariants(); err != nil {
		return Result{}, s.abort(err)
	}
	return s.result(KindNoop, false), nil
}

// Dispatch processes exactly one event to completion.
//
// Recoverable failures (invalid payloads, malformed drags, save sink
// errors) leave the session unchanged and are returned as errors wrapping
// ErrInvalidEvent, ErrMalformedDrag or ErrSaveFailed. Degenerate fits are
// not errors: the affected markers are listed in Result.Warnings.
//
// A broken invariant returns an error wrapping ErrInvariant and aborts the
// session; every later call returns ErrSessionAborted.
func (s *Session) Dispatch(ctx context.Context, ev Event) (Result, error) {
	if s.aborted != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSessionAborted, s.aborted)
	}
	if ev == nil {
		ev = Noop{}
	}
	if err := ev.Validate(); err != nil {
		return Result{}, err
	}
	if err := s.checkInvariants(); err != nil {
		return Result{}, s.abort(err)
	}

	var (
		res Result
		err error
	)
	switch e := ev.(type) {
	case Noop:
		res = s.result(KindNoop, false)
	case Click:
		res, err = s.click(e)
	case Drag:
		res, err = s.drag(e)
	case Navigate:
		res = s.navigate(e)
	case Clear:
		res = s.clear()
	case Resize:
		res = s.resize(e)
	case Save:
		res, err = s.save(ctx)
	case ViewportChange:
		res = s.changeViewport(e)
	case Select:
		res, err = s.selectLabel(e)
	default:
		return Result{}, fmt.Errorf("%w: unsupported event %T", ErrInvalidEvent, ev)
	}
	if err != nil {
		if errors.Is(err, ErrInvariant) {
			return Result{}, s.abort(err)
		}
		return Result{}, err
	}
	return res, nil
}

func (s *Session) click(e Click) (Result, error) {
	label, err := s.catalog.Label(s.active)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	if s.state.Has(label) {
		// Moving an existing marker is a drag, not a click.
		return s.result(KindClick, false), nil
	}
	color, err := s.catalog.ColorOf(s.active)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}

	next, err := s.state.With(annotation.Marker{
		Label:  label,
		Path:   geometry.DrawCircle(geometry.Point{X: e.X, Y: e.Y}, s.radius, s.cfg.Points),
		Color:  color,
		Radius: s.radius,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	s.state = next
	s.active = s.catalog.Advance(s.active)
	return s.result(KindClick, true), nil
}

func (s *Session) drag(e Drag) (Result, error) {
	old, err := s.state.At(e.ShapeIndex)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedDrag, err)
	}

	radius := old.Radius
	if c, err := geometry.CircleCenter(e.Path); err == nil {
		radius = geometry.MeanRadius(e.Path, c)
	}
	next, err := s.state.WithPath(e.ShapeIndex, e.Path, radius)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedDrag, err)
	}
	s.state = next
	return s.result(KindDrag, true), nil
}

func (s *Session) navigate(e Navigate) Result {
	if e.Direction == Previous {
		s.imageIndex = s.carousel.Previous(s.imageIndex)
	} else {
		s.imageIndex = s.carousel.Next(s.imageIndex)
	}
	s.reset()
	return s.result(KindNavigate, true)
}

func (s *Session) clear() Result {
	s.reset()
	return s.result(KindClear, true)
}

func (s *Session) reset() {
	s.state = annotation.State{}
	s.active = s.catalog.Reset()
	s.viewport = AutoFit
}

func (s *Session) resize(e Resize) Result {
	r := max(s.cfg.MinRadius, min(s.cfg.MaxRadius, e.Radius))
	s.radius = r

	var warnings []string
	if r != e.Radius {
		warnings = append(warnings, fmt.Sprintf("radius %v clamped to %v, allowed range is [%v, %v]",
			e.Radius, r, s.cfg.MinRadius, s.cfg.MaxRadius))
	}
	next := s.state
	for i, m := range s.state.Markers() {
		c, err := m.Center()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", m.Label, err))
			s.log.Warn().Str("session", s.id).Str("label", m.Label).Err(err).Msg("marker kept its outline on resize")
			continue
		}
		// i addresses a marker of s.state, which next shares indices with.
		next, _ = next.WithPath(i, geometry.DrawCircle(c, r, s.cfg.Points), r)
	}
	s.state = next

	res := s.result(KindResize, true)
	res.Warnings = warnings
	return res
}

func (s *Session) save(ctx context.Context) (Result, error) {
	rec := SaveRecord{
		SessionID:  s.id,
		ImageIndex: s.imageIndex,
		ImageRef:   s.images.Ref(s.imageIndex),
		Centers:    make(map[string]geometry.Point, s.state.Len()),
		At:         s.now(),
	}

	var warnings []string
	for _, m := range s.state.Markers() {
		c, err := m.Center()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", m.Label, err))
			continue
		}
		rec.Centers[m.Label] = c
	}

	if s.sink != nil {
		if err := s.sink.Record(ctx, rec); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
		}
	}

	res := s.result(KindSave, false)
	res.Warnings = warnings
	res.Saved = &rec
	return res, nil
}

func (s *Session) changeViewport(e ViewportChange) Result {
	prev := s.viewport
	if e.Mode == AutoRange {
		s.viewport = AutoFit
	} else {
		s.viewport = Viewport{XRange: e.XRange, YRange: e.YRange}
	}
	return s.result(KindViewport, s.viewport != prev)
}

func (s *Session) selectLabel(e Select) (Result, error) {
	i, ok := s.catalog.Index(e.Label)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q is not in this session's labels", ErrInvalidEvent, e.Label)
	}
	changed := i != s.active
	s.active = i
	return s.result(KindSelect, changed), nil
}

// Restore replaces the markers of the current image with st, as serialized
// by a previous Result. Every label must belong to the subset; colors are
// reassigned from the catalog. The active label becomes the first subset
// label without a marker, or the last one when all are placed.
func (s *Session) Restore(st annotation.State) (Result, error) {
	if s.aborted != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSessionAborted, s.aborted)
	}

	var next annotation.State
	for _, m := range st.Markers() {
		i, ok := s.catalog.Index(m.Label)
		if !ok {
			return Result{}, fmt.Errorf("%w: unknown label %q", ErrMalformedState, m.Label)
		}
		if _, err := geometry.CircleCenter(m.Path); errors.Is(err, geometry.ErrTooFewPoints) {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrMalformedState, m.Label, err)
		}
		m.Color, _ = s.catalog.ColorOf(i)
		var err error
		if next, err = next.With(m); err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
		}
	}

	s.state = next
	s.active = s.catalog.Len() - 1
	for i, l := range s.catalog.Subset() {
		if !next.Has(l) {
			s.active = i
			break
		}
	}
	return s.result(KindNoop, true), nil
}

// checkInvariants verifies the catalog and carousel cursors and marker
// label uniqueness.
func (s *Session) checkInvariants() error {
	if _, err := s.catalog.Label(s.active); err != nil {
		return fmt.Errorf("%w: active label: %v", ErrInvariant, err)
	}
	if err := s.carousel.Check(s.imageIndex); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	seen := make(map[string]bool, s.state.Len())
	for _, l := range s.state.Labels() {
		if seen[l] {
			return fmt.Errorf("%w: duplicate marker for %q", ErrInvariant, l)
		}
		if _, ok := s.catalog.Index(l); !ok {
			return fmt.Errorf("%w: marker label %q not in subset", ErrInvariant, l)
		}
		seen[l] = true
	}
	return nil
}

func (s *Session) abort(err error) error {
	s.aborted = err
	s.log.Error().Str("session", s.id).Err(err).Msg("session aborted")
	return err
}

func (s *Session) result(kind EventKind, changed bool) Result {
	label, _ := s.catalog.Label(s.active)
	render := Render{
		ImageIndex: s.imageIndex,
		ImageRef:   s.images.Ref(s.imageIndex),
		Markers:    visuals(s.state),
		Viewport:   s.viewport,
	}
	if sz, ok := s.images.(sizer); ok {
		if w, h, err := sz.Size(s.imageIndex); err == nil {
			render.Width, render.Height = w, h
		} else {
			s.log.Warn().Str("session", s.id).Str("image", render.ImageRef).Err(err).Msg("image size unavailable")
		}
	}
	return Result{
		Event:       kind,
		Changed:     changed,
		Render:      render,
		ActiveLabel: label,
		ActiveIndex: s.active,
		ImageIndex:  s.imageIndex,
		Radius:      s.radius,
		State:       s.state,
	}
}
