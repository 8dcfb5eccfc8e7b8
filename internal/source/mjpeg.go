package source

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/safehaven/safehaven-core/internal/imaging"
)

// mjpegSource reads a multipart MJPEG HTTP stream, the format most IP
// cameras and test harnesses expose on plain HTTP.
type mjpegSource struct {
	url   string
	codec imaging.Codec

	resp   *http.Response
	parts  *multipart.Reader
}

func newMJPEGSource(url string, codec imaging.Codec) *mjpegSource {
	return &mjpegSource{url: url, codec: codec}
}

func (s *mjpegSource) Open() error {
	resp, err := http.Get(s.url)
	if err != nil {
		return fmt.Errorf("mjpeg get: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return fmt.Errorf("mjpeg status %d", resp.StatusCode)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/x-mixed-replace" || params["boundary"] == "" {
		resp.Body.Close()
		return fmt.Errorf("not an mjpeg stream: content-type %q", resp.Header.Get("Content-Type"))
	}
	s.resp = resp
	s.parts = multipart.NewReader(resp.Body, params["boundary"])
	return nil
}

func (s *mjpegSource) ReadFrame() (imaging.Frame, error) {
	if s.parts == nil {
		return imaging.Frame{}, errors.New("source not open")
	}
	part, err := s.parts.NextPart()
	if err != nil {
		return imaging.Frame{}, err
	}
	data, err := io.ReadAll(part)
	part.Close()
	if err != nil {
		return imaging.Frame{}, err
	}
	return s.codec.DecodeJPEG(data)
}

func (s *mjpegSource) Close() error {
	if s.resp != nil {
		s.resp.Body.Close()
		s.resp = nil
		s.parts = nil
	}
	return nil
}
