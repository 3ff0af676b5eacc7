package catalog

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// plasmaStops are the matplotlib "plasma" colormap values at t = 0, 1/8, ..., 1.
var plasmaStops = []string{
	"#0d0887", "#4c02a1", "#7e03a8", "#a92395", "#cc4778",
	"#e56b5d", "#f89540", "#fdc527", "#f0f921",
}

// Plasma samples the plasma colormap at n evenly spaced steps and returns
// the colors as "#rrggbb". Step i sits at t = i/(n-1), so the first color is
// the dark end of the map and the last is the bright end. A single step
// returns the dark end.
//
// Between anchor stops colors are interpolated in CIE L*a*b*, which keeps
// the perceptual ordering of the original map.
func Plasma(n int) []string {
	if n <= 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = plasmaAt(t).Clamped().Hex()
	}
	return out
}

// plasmaAt returns the plasma color at t in [0, 1].
func plasmaAt(t float64) colorful.Color {
	t = max(0, min(1, t))
	segments := float64(len(plasmaStops) - 1)
	pos := t * segments
	lo := int(pos)
	if lo >= len(plasmaStops)-1 {
		return mustHex(plasmaStops[len(plasmaStops)-1])
	}
	frac := pos - float64(lo)
	return mustHex(plasmaStops[lo]).BlendLab(mustHex(plasmaStops[lo+1]), frac)
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("catalog: bad palette stop " + s)
	}
	return c
}
