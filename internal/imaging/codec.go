package imaging

// Codec is the injected image capability boundary. The pipeline and emitter
// only ever see this interface; the concrete encoder lives behind it.
type Codec interface {
	// EncodeJPEG serializes a frame to JPEG bytes.
	EncodeJPEG(f Frame) ([]byte, error)
	// DecodeJPEG parses JPEG bytes into a frame.
	DecodeJPEG(data []byte) (Frame, error)
	// AnnotateROI returns a copy of the frame with the rectangle outlined
	// and the label text drawn top-left.
	AnnotateROI(f Frame, rect PixelRect, label string) (Frame, error)
}
