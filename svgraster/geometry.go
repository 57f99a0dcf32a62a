package svgraster

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/benoitkugler/svgtopng/svgdoc"
	"github.com/srwiley/rasterx"
)

// Bounds defines a rectangle in user units, such as a viewBox.
type Bounds struct{ X, Y, W, H float64 }

// AspectRatio is the parsed `preserveAspectRatio` attribute.
type AspectRatio struct {
	AlignX, AlignY float64 // 0 for min, 0.5 for mid, 1 for max
	None           bool    // non uniform scaling
	Slice          bool    // cover the viewport instead of fitting in it
}

// DefaultAspectRatio is `xMidYMid meet`.
var DefaultAspectRatio = AspectRatio{AlignX: 0.5, AlignY: 0.5}

// Geometry holds the sizing attributes of the root svg element.
type Geometry struct {
	Width, Height float64 // in pixels, 0 when absent or relative
	ViewBox       Bounds  // zero when absent
	Aspect        AspectRatio
}

// pixels per unit, at 96 dpi
var unitToPx = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96. / 72,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
	// relative to the default 16px font
	"em": 16,
	"ex": 8,
}

// ReadGeometry reads the sizing attributes of the document element.
func ReadGeometry(doc *svgdoc.Document) (Geometry, error) {
	g := Geometry{Aspect: DefaultAspectRatio}
	root := doc.Root()
	var err error
	for _, attr := range root.Attr {
		if attr.Name.Space != "" {
			continue
		}
		switch attr.Name.Local {
		case "width":
			g.Width, err = parseLength(attr.Value)
		case "height":
			g.Height, err = parseLength(attr.Value)
		case "viewBox":
			g.ViewBox, err = parseViewBox(attr.Value)
		case "preserveAspectRatio":
			g.Aspect, err = parseAspectRatio(attr.Value)
		}
		if err != nil {
			return g, fmt.Errorf("invalid %s attribute: %s", attr.Name.Local, err)
		}
	}
	return g, nil
}

// Intrinsic returns the size of the document in pixels,
// deriving a missing dimension from the viewBox.
// A zero value means the size is unknown.
func (g Geometry) Intrinsic() (w, h float64) {
	w, h = g.Width, g.Height
	vb := g.ViewBox
	switch {
	case w == 0 && h == 0:
		w, h = vb.W, vb.H
	case w == 0 && vb.H != 0:
		w = h * vb.W / vb.H
	case h == 0 && vb.W != 0:
		h = w * vb.H / vb.W
	}
	return w, h
}

// parseLength returns the length in pixels, or 0 for
// percentages, which have no meaning for a standalone image.
func parseLength(v string) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" || strings.HasSuffix(v, "%") {
		return 0, nil
	}
	i := len(v)
	for i > 0 && (v[i-1] < '0' || v[i-1] > '9') && v[i-1] != '.' {
		i--
	}
	factor, ok := unitToPx[strings.ToLower(v[i:])]
	if !ok {
		return 0, fmt.Errorf("unsupported unit in %q", v)
	}
	f, err := strconv.ParseFloat(v[:i], 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative length %q", v)
	}
	return f * factor, nil
}

func splitOnCommaOrSpace(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

func parseViewBox(v string) (Bounds, error) {
	fields := splitOnCommaOrSpace(v)
	if len(fields) != 4 {
		return Bounds{}, fmt.Errorf("expected 4 numbers, got %d", len(fields))
	}
	var vals [4]float64
	for i, field := range fields {
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Bounds{}, err
		}
		vals[i] = f
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return Bounds{}, fmt.Errorf("non positive size in %q", v)
	}
	return Bounds{X: vals[0], Y: vals[1], W: vals[2], H: vals[3]}, nil
}

var alignFactor = map[string]float64{"Min": 0, "Mid": 0.5, "Max": 1}

func parseAspectRatio(v string) (AspectRatio, error) {
	out := DefaultAspectRatio
	fields := strings.Fields(v)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	if len(fields) == 0 || len(fields) > 2 {
		return out, fmt.Errorf("invalid value %q", v)
	}
	if len(fields) == 2 {
		switch fields[1] {
		case "meet":
		case "slice":
			out.Slice = true
		default:
			return out, fmt.Errorf("invalid value %q", v)
		}
	}
	align := fields[0]
	if align == "none" {
		out.None = true
		return out, nil
	}
	// xMinYMid and friends
	if len(align) != 8 || align[0] != 'x' || align[4] != 'Y' {
		return out, fmt.Errorf("invalid alignment %q", align)
	}
	ax, okX := alignFactor[align[1:4]]
	ay, okY := alignFactor[align[5:8]]
	if !okX || !okY {
		return out, fmt.Errorf("invalid alignment %q", align)
	}
	out.AlignX, out.AlignY = ax, ay
	return out, nil
}

// viewBoxTransform maps `vb` onto the (0, 0, w, h) viewport.
func viewBoxTransform(vb Bounds, w, h float64, aspect AspectRatio) rasterx.Matrix2D {
	sx, sy := w/vb.W, h/vb.H
	var tx, ty float64
	if !aspect.None {
		s := math.Min(sx, sy)
		if aspect.Slice {
			s = math.Max(sx, sy)
		}
		sx, sy = s, s
		tx = (w - vb.W*s) * aspect.AlignX
		ty = (h - vb.H*s) * aspect.AlignY
	}
	return rasterx.Matrix2D{A: sx, D: sy, E: tx - vb.X*sx, F: ty - vb.Y*sy}
}
