package source

import (
	"fmt"
	"strings"

	"github.com/safehaven/safehaven-core/internal/imaging"
)

// FrameSource yields decoded frames from one camera stream. Implementations
// are not safe for concurrent use; each sampler owns its source.
type FrameSource interface {
	Open() error
	ReadFrame() (imaging.Frame, error)
	Close() error
}

// Options tunes how a source is built.
type Options struct {
	// RTSPTransport is "tcp" or "udp"; anything else falls back to tcp.
	RTSPTransport string
	Codec         imaging.Codec
}

// New picks a source implementation by URL scheme.
func New(url string, opts Options) (FrameSource, error) {
	if opts.Codec == nil {
		opts.Codec = imaging.NewJPEGCodec()
	}
	switch {
	case strings.HasPrefix(url, "rtsp://"):
		return newFFmpegSource(url, opts), nil
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return newMJPEGSource(url, opts.Codec), nil
	default:
		return nil, fmt.Errorf("unsupported stream url %q", url)
	}
}
