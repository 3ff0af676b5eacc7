package geometry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPath is returned by ParsePath for input that is not a
// polygon path of the form "M x,y L x,y ... Z".
var ErrMalformedPath = errors.New("malformed path")

// Path is an ordered, closed sequence of points. The last point repeats the
// first one.
type Path []Point

// Closed reports whether the last vertex coincides with the first.
func (p Path) Closed() bool {
	return len(p) > 1 && p[0] == p[len(p)-1]
}

// Vertices returns the distinct vertices, without the closing repeat.
func (p Path) Vertices() []Point {
	if p.Closed() {
		return p[:len(p)-1]
	}
	return p
}

// Clone returns a copy of the path.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// String encodes the path as an SVG polygon path: "M x,y L x,y ... Z".
// The closing repeat vertex is not written; Z closes the outline.
func (p Path) String() string {
	pts := p.Vertices()
	if len(pts) == 0 {
		return ""
	}

	var b strings.Builder
	for i, pt := range pts {
		if i == 0 {
			b.WriteString("M ")
		} else {
			b.WriteString(" L ")
		}
		b.WriteString(formatFloat(pt.X))
		b.WriteByte(',')
		b.WriteString(formatFloat(pt.Y))
	}
	b.WriteString(" Z")
	return b.String()
}

// MarshalText implements encoding.TextMarshaler so paths travel as strings.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePath decodes an SVG polygon path.
//
// Supported commands are M (move), L (line) and Z (close), upper case only,
// with coordinate pairs separated by a comma or whitespace. Separators
// between tokens are optional, so both "M 1,2 L 3,4 L 5,6 Z" and
// "M1,2L3,4L5,6Z" decode to the same path.
//
// The returned path is always closed: if the input does not end on its
// starting vertex, the starting vertex is appended.
//
// # Errors
//
//   - ErrMalformedPath for empty input, unknown commands, dangling or
//     non-numeric coordinates, or a path not starting with M
//   - ErrTooFewPoints when fewer than 3 distinct vertices remain
func ParsePath(s string) (Path, error) {
	tokens, err := tokenizePath(s)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedPath)
	}
	if tokens[0] != "M" {
		return nil, fmt.Errorf("%w: must start with M, got %q", ErrMalformedPath, tokens[0])
	}

	var path Path
	var pending []float64
	closed := false
	for _, tok := range tokens {
		switch tok {
		case "M", "L":
			if len(pending) != 0 || closed {
				return nil, fmt.Errorf("%w: unexpected %s", ErrMalformedPath, tok)
			}
		case "Z":
			if len(pending) != 0 {
				return nil, fmt.Errorf("%w: dangling coordinate", ErrMalformedPath)
			}
			closed = true
		default:
			if closed {
				return nil, fmt.Errorf("%w: coordinates after Z", ErrMalformedPath)
			}
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrMalformedPath, tok)
			}
			pending = append(pending, v)
			if len(pending) == 2 {
				path = append(path, Point{X: pending[0], Y: pending[1]})
				pending = pending[:0]
			}
		}
	}
	if len(pending) != 0 {
		return nil, fmt.Errorf("%w: dangling coordinate", ErrMalformedPath)
	}

	if !path.Closed() && len(path) > 0 {
		path = append(path, path[0])
	}
	if distinct(path.Vertices()) < 3 {
		return nil, ErrTooFewPoints
	}
	return path, nil
}

// tokenizePath splits a path string into command letters and numbers.
func tokenizePath(s string) ([]string, error) {
	var tokens []string
	var num strings.Builder

	flush := func() {
		if num.Len() > 0 {
			tokens = append(tokens, num.String())
			num.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == 'M' || r == 'L' || r == 'Z':
			flush()
			tokens = append(tokens, string(r))
		case r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			flush()
		case r == '-' || r == '+':
			// A sign starts a new number unless it belongs to an exponent.
			cur := num.String()
			if cur != "" && !strings.HasSuffix(cur, "e") && !strings.HasSuffix(cur, "E") {
				flush()
			}
			num.WriteRune(r)
		case (r >= '0' && r <= '9') || r == '.' || r == 'e' || r == 'E':
			num.WriteRune(r)
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrMalformedPath, r)
		}
	}
	flush()
	return tokens, nil
}

func distinct(pts []Point) int {
	seen := make(map[Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
