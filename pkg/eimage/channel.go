package eimage

import(
	"fmt"
	"strings"
)

type chanKind int

const (
	kindPlanes chanKind = iota
	kindValue
	kindLuma
	kindLuminance
	kindLightness
)

// A Channel selects what a tone transform operates on: one of the
// scalar channels (HSV value, luma, luminance Y, lightness L*), which
// gets stretched and redistributed onto RGB, or a subset of the R, G,
// B planes, which get transformed independently.
type Channel struct {
	kind    chanKind
	r, g, b bool
}

var(
	Value     = Channel{kind: kindValue}
	Luma      = Channel{kind: kindLuma}
	Luminance = Channel{kind: kindLuminance}
	Lightness = Channel{kind: kindLightness}
	RGB       = Channel{kind: kindPlanes, r: true, g: true, b: true}
)

// Planes selects a subset of the R, G, B planes.
func Planes(r, g, b bool) Channel {
	return Channel{kind: kindPlanes, r: r, g: g, b: b}
}

// ParseChannel maps the conventional channel letters to a selector:
// "V" value, "L" luma, "Y" luminance, "L*" lightness, or any
// combination of "R", "G", "B".
func ParseChannel(s string) (Channel, error) {
	switch s {
	case "V":
		return Value, nil
	case "L":
		return Luma, nil
	case "Y":
		return Luminance, nil
	case "L*":
		return Lightness, nil
	}
	c := Channel{kind: kindPlanes}
	for _, letter := range s {
		switch letter {
		case 'R':
			c.r = true
		case 'G':
			c.g = true
		case 'B':
			c.b = true
		default:
			return Channel{}, fmt.Errorf("unknown channel selector %q", s)
		}
	}
	if !c.r && !c.g && !c.b {
		return Channel{}, fmt.Errorf("empty channel selector %q", s)
	}
	return c, nil
}

// IsScalar reports whether the selector is a computed scalar channel
// (as opposed to a plane subset).
func (c Channel)IsScalar() bool { return c.kind != kindPlanes }

// Selected reports whether plane i (0 = R, 1 = G, 2 = B) is selected.
// Always false for scalar selectors.
func (c Channel)Selected(i int) bool {
	switch i {
	case 0:
		return c.kind == kindPlanes && c.r
	case 1:
		return c.kind == kindPlanes && c.g
	case 2:
		return c.kind == kindPlanes && c.b
	}
	return false
}

func (c Channel)String() string {
	switch c.kind {
	case kindValue:
		return "V"
	case kindLuma:
		return "L"
	case kindLuminance:
		return "Y"
	case kindLightness:
		return "L*"
	}
	var sb strings.Builder
	if c.r {
		sb.WriteByte('R')
	}
	if c.g {
		sb.WriteByte('G')
	}
	if c.b {
		sb.WriteByte('B')
	}
	return sb.String()
}
