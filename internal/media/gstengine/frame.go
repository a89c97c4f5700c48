package gstengine

import (
	"fmt"
	"image"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/base"
)

// rawFrame is a copy of one raw video frame taken out of a sample.
type rawFrame struct {
	format        string
	width, height int
	data          []byte
}

func copyFrame(s *gst.Sample) (*rawFrame, error) {
	caps := s.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return nil, fmt.Errorf("sample has no caps")
	}
	st := caps.GetStructureAt(0)
	f := &rawFrame{}
	if v, err := st.GetValue("format"); err == nil {
		f.format, _ = v.(string)
	}
	if v, err := st.GetValue("width"); err == nil {
		f.width, _ = v.(int)
	}
	if v, err := st.GetValue("height"); err == nil {
		f.height, _ = v.(int)
	}
	if f.width <= 0 || f.height <= 0 {
		return nil, fmt.Errorf("sample caps lack dimensions: %s", caps.String())
	}

	buf := s.GetBuffer()
	if buf == nil {
		return nil, fmt.Errorf("sample has no buffer")
	}
	mapInfo := buf.Map(gst.MapRead)
	if mapInfo == nil {
		return nil, fmt.Errorf("cannot map sample buffer")
	}
	f.data = append([]byte(nil), mapInfo.Bytes()...)
	buf.Unmap()
	return f, nil
}

// toImage decodes packed RGB-family formats. Rows may be padded, so the
// stride is derived from the buffer size.
func (f *rawFrame) toImage() (image.Image, error) {
	var bpp int
	var r, g, b, a int
	switch f.format {
	case "RGBA":
		bpp, r, g, b, a = 4, 0, 1, 2, 3
	case "RGBx":
		bpp, r, g, b, a = 4, 0, 1, 2, -1
	case "BGRA":
		bpp, r, g, b, a = 4, 2, 1, 0, 3
	case "BGRx":
		bpp, r, g, b, a = 4, 2, 1, 0, -1
	case "RGB":
		bpp, r, g, b, a = 3, 0, 1, 2, -1
	case "BGR":
		bpp, r, g, b, a = 3, 2, 1, 0, -1
	default:
		return nil, fmt.Errorf("unsupported raw format %q", f.format)
	}

	stride := len(f.data) / f.height
	if stride < f.width*bpp {
		return nil, fmt.Errorf("buffer of %d bytes too small for %dx%d %s", len(f.data), f.width, f.height, f.format)
	}

	img := image.NewNRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		row := f.data[y*stride:]
		out := img.Pix[y*img.Stride:]
		for x := 0; x < f.width; x++ {
			px := row[x*bpp:]
			out[x*4] = px[r]
			out[x*4+1] = px[g]
			out[x*4+2] = px[b]
			if a >= 0 {
				out[x*4+3] = px[a]
			} else {
				out[x*4+3] = 0xff
			}
		}
	}
	return img, nil
}

// frameSurface exposes an appsink's last frame as a media.Surface.
type frameSurface struct {
	el *gst.Element
}

func (s *frameSurface) Frame() (image.Image, bool) {
	sample := lastSample(s.el)
	if sample == nil {
		return nil, false
	}
	f, err := copyFrame(sample)
	if err != nil {
		return nil, false
	}
	img, err := f.toImage()
	if err != nil {
		return nil, false
	}
	return img, true
}

// lastSample reads a sink's last-sample through the base sink API. The
// property itself comes back from GObject as an untyped boxed pointer.
func lastSample(el *gst.Element) *gst.Sample {
	return base.ToGstBaseSink(el.Object).GetLastSample()
}
