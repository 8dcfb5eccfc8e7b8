package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var evidenceGreen = color.RGBA{R: 0, G: 255, B: 0, A: 255}

// JPEGCodec implements Codec with the standard image stack. Frames carry
// 3-channel RGB pixels.
type JPEGCodec struct {
	Quality int
}

// NewJPEGCodec uses a quality suited for evidence snapshots.
func NewJPEGCodec() *JPEGCodec {
	return &JPEGCodec{Quality: 85}
}

func (c *JPEGCodec) EncodeJPEG(f Frame) ([]byte, error) {
	if f.Empty() {
		return nil, errors.New("encode: empty frame")
	}
	img, err := frameToImage(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *JPEGCodec) DecodeJPEG(data []byte) (Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return Frame{}, err
	}
	return imageToFrame(img), nil
}

func (c *JPEGCodec) AnnotateROI(f Frame, rect PixelRect, label string) (Frame, error) {
	img, err := frameToImage(f)
	if err != nil {
		return Frame{}, err
	}
	drawRect(img, rect, 2)
	if label != "" {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(evidenceGreen),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(20, 30),
		}
		d.DrawString(label)
	}
	return imageToFrame(img), nil
}

func drawRect(img *image.RGBA, r PixelRect, thickness int) {
	b := img.Bounds()
	for t := 0; t < thickness; t++ {
		for x := r.X1; x < r.X2; x++ {
			setIfInside(img, b, x, r.Y1+t)
			setIfInside(img, b, x, r.Y2-1-t)
		}
		for y := r.Y1; y < r.Y2; y++ {
			setIfInside(img, b, r.X1+t, y)
			setIfInside(img, b, r.X2-1-t, y)
		}
	}
}

func setIfInside(img *image.RGBA, b image.Rectangle, x, y int) {
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		img.SetRGBA(x, y, evidenceGreen)
	}
}

func frameToImage(f Frame) (*image.RGBA, error) {
	if f.Channels != 3 {
		return nil, errors.New("frame is not 3-channel RGB")
	}
	if len(f.Pix) < f.Width*f.Height*3 {
		return nil, errors.New("frame pixel buffer too short")
	}
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			off := (y*f.Width + x) * 3
			img.SetRGBA(x, y, color.RGBA{R: f.Pix[off], G: f.Pix[off+1], B: f.Pix[off+2], A: 255})
		}
	}
	return img, nil
}

func imageToFrame(img image.Image) Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	f := Frame{Width: w, Height: h, Channels: 3, Pix: make([]byte, w*h*3)}
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				off := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				dst := (y*w + x) * 3
				f.Pix[dst] = rgba.Pix[off]
				f.Pix[dst+1] = rgba.Pix[off+1]
				f.Pix[dst+2] = rgba.Pix[off+2]
			}
		}
		return f
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return imageToFrame(dst)
}
