package detect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/safehaven/safehaven-core/internal/metrics"
)

// Detection is one raw detector row: [class_id, score, x, y, w, h, ...].
// Only the first two fields matter for zone reduction; shorter rows are
// malformed and skipped.
type Detection []float64

// Client posts ROI JPEGs to the Metis detector.
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a client with the given request timeout.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// URL returns the detector endpoint the client posts to.
func (c *Client) URL() string { return c.url }

// Detect runs one inference round trip. The latency histogram is observed for
// every completed HTTP exchange, including non-2xx responses. A non-array
// response body is treated as zero detections, not an error.
func (c *Client) Detect(jpeg []byte) ([]Detection, error) {
	start := time.Now()
	resp, err := c.http.Post(c.url, "image/jpeg", bytes.NewReader(jpeg))
	if err != nil {
		return nil, fmt.Errorf("metis post: %w", err)
	}
	defer resp.Body.Close()
	metrics.InferMS.Observe(float64(time.Since(start)) / float64(time.Millisecond))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("metis read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("metis status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var dets []Detection
	if err := json.Unmarshal(body, &dets); err != nil {
		var any interface{}
		if json.Unmarshal(body, &any) == nil {
			// Valid JSON that is not a detection array.
			return nil, nil
		}
		return nil, fmt.Errorf("metis decode: %w", err)
	}
	return dets, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
