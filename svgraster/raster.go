// Implements the raster backend used to export SVG documents
// to PNG images, by wrapping oksvg and rasterx.
package svgraster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/benoitkugler/svgtopng/svgdoc"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// ErrRender wraps every failure of the rendering service.
var ErrRender = errors.New("render failure")

// MaxPixels bounds the area of the canvas (256 MB of RGBA data).
const MaxPixels = 1 << 26

// Renderer rasterizes SVG documents to PNG.
// The zero value is ready to use, and silently skips
// the SVG elements oksvg does not support.
// A Renderer holds no state and may be shared between goroutines.
type Renderer struct {
	ErrorMode oksvg.ErrorMode
}

// Render encodes `svg` as a PNG image of `width` x `height` pixels.
// A zero dimension is replaced by the intrinsic one of the document.
func (rd Renderer) Render(svg []byte, width, height float64) ([]byte, error) {
	img, err := rd.RasterImage(svg, width, height)
	if err != nil {
		return nil, err
	}
	out, err := toPngBytes(img)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding png: %v", ErrRender, err)
	}
	return out, nil
}

// RasterImage is the same as Render, but returns the raw image.
func (rd Renderer) RasterImage(svg []byte, width, height float64) (*image.RGBA, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: invalid size %gx%g", ErrRender, width, height)
	}
	doc, err := svgdoc.ParseBytes(svg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	geom, err := ReadGeometry(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	iw, ih := geom.Intrinsic()
	if width == 0 {
		width = iw
	}
	if height == 0 {
		height = ih
	}
	rw, rh := math.Round(width), math.Round(height)
	if !(rw > 0 && rh > 0) {
		return nil, fmt.Errorf("%w: document has no usable size (%gx%g)", ErrRender, width, height)
	}
	if rw*rh > MaxPixels {
		return nil, fmt.Errorf("%w: image too large (%gx%g pixels)", ErrRender, rw, rh)
	}
	w, h := int(rw), int(rh)

	// without viewBox, user units are pixels
	vb := geom.ViewBox
	if vb.W == 0 || vb.H == 0 {
		vb = Bounds{W: iw, H: ih}
		if iw == 0 || ih == 0 {
			vb = Bounds{W: float64(w), H: float64(h)}
		}
	}

	// oksvg only understands plain numbers for the root size,
	// and only uses it as a fallback for the viewBox
	root := doc.Root()
	root.RemoveAttr("width")
	root.RemoveAttr("height")
	root.SetAttr("viewBox", fmt.Sprintf("%g %g %g %g", vb.X, vb.Y, vb.W, vb.H))

	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc.Bytes()), rd.ErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	icon.Transform = viewBoxTransform(vb, float64(w), float64(h), geom.Aspect)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return img, nil
}

func toPngBytes(m image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, m); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
