package source

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/safehaven/safehaven-core/internal/imaging"
)

// ffmpegSource shells out to ffmpeg to turn an RTSP stream into an MJPEG
// byte stream on stdout. Decoding H.264 in-process is not worth it when
// ffmpeg is already on every deploy image.
type ffmpegSource struct {
	url       string
	transport string
	codec     imaging.Codec

	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
}

func newFFmpegSource(url string, opts Options) *ffmpegSource {
	transport := opts.RTSPTransport
	if transport != "tcp" && transport != "udp" {
		transport = "tcp"
	}
	return &ffmpegSource{url: url, transport: transport, codec: opts.Codec}
}

func (s *ffmpegSource) Open() error {
	cmd := exec.Command("ffmpeg",
		"-hide_banner", "-loglevel", "error",
		"-rtsp_transport", s.transport,
		"-i", s.url,
		"-f", "mjpeg", "-q:v", "5",
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	s.reader = bufio.NewReaderSize(stdout, 256*1024)
	return nil
}

func (s *ffmpegSource) ReadFrame() (imaging.Frame, error) {
	if s.reader == nil {
		return imaging.Frame{}, errors.New("source not open")
	}
	jpg, err := readJPEG(s.reader)
	if err != nil {
		return imaging.Frame{}, err
	}
	return s.codec.DecodeJPEG(jpg)
}

func (s *ffmpegSource) Close() error {
	if s.cmd == nil {
		return nil
	}
	s.stdout.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	err := s.cmd.Wait()
	s.cmd = nil
	s.reader = nil
	if err != nil && !errors.Is(err, io.ErrClosedPipe) {
		// ffmpeg killed mid-stream always exits non-zero.
		return nil
	}
	return nil
}

// readJPEG scans the stream for the next SOI..EOI span and returns it,
// including both markers.
func readJPEG(r *bufio.Reader) ([]byte, error) {
	// Find SOI (FF D8).
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b != 0xFF {
			continue
		}
		next, err := r.Peek(1)
		if err != nil {
			return nil, err
		}
		if next[0] == 0xD8 {
			r.Discard(1)
			break
		}
	}

	buf := []byte{0xFF, 0xD8}
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
		if b == 0xFF {
			next, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			buf = append(buf, next)
			if next == 0xD9 {
				return buf, nil
			}
		}
	}
}
