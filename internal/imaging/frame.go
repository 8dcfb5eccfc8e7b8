package imaging

import "github.com/safehaven/safehaven-core/internal/config"

// Frame is an opaque interleaved pixel buffer (row-major, Channels bytes per
// pixel). The pipeline moves frames by value; Pix is owned by whoever holds
// the frame and is never shared between sampler and worker.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// PixelRect is an absolute pixel rectangle, half-open on the bottom-right.
type PixelRect struct {
	X1, Y1, X2, Y2 int
}

// ROIPixels converts an ROI to absolute pixel coordinates against a frame of
// the given dimensions. Coordinates at or below 1 are treated as normalized.
// The result is clamped so the rectangle is non-empty and inside the frame.
func ROIPixels(roi config.ROI, width, height int) PixelRect {
	x1 := absCoord(roi.X, width)
	y1 := absCoord(roi.Y, height)
	rw := absCoord(roi.W, width)
	rh := absCoord(roi.H, height)

	x2 := min(width, max(x1+1, x1+rw))
	y2 := min(height, max(y1+1, y1+rh))
	x1 = max(0, min(x1, width-1))
	y1 = max(0, min(y1, height-1))
	// ROIs falling entirely outside the frame still yield a 1px rectangle.
	x2 = min(width, max(x1+1, x2))
	y2 = min(height, max(y1+1, y2))
	return PixelRect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func absCoord(v float64, dim int) int {
	if v <= 1 {
		return int(v * float64(dim))
	}
	return int(v)
}

// CropROI copies the ROI sub-image out of the frame. The result is always at
// least 1x1 for any finite frame.
func CropROI(f Frame, roi config.ROI) Frame {
	r := ROIPixels(roi, f.Width, f.Height)
	w := r.X2 - r.X1
	h := r.Y2 - r.Y1

	out := Frame{Width: w, Height: h, Channels: f.Channels}
	out.Pix = make([]byte, w*h*f.Channels)
	srcStride := f.Width * f.Channels
	dstStride := w * f.Channels
	for row := 0; row < h; row++ {
		srcOff := (r.Y1+row)*srcStride + r.X1*f.Channels
		copy(out.Pix[row*dstStride:(row+1)*dstStride], f.Pix[srcOff:srcOff+dstStride])
	}
	return out
}
