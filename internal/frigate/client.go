package frigate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DrawBox is one overlay box in Frigate's event draw payload. Coordinates are
// normalized fractions of the frame; Score is an integer percent.
type DrawBox struct {
	Box   [4]float64 `json:"box"`
	Color [3]int     `json:"color"`
	Score int        `json:"score"`
}

// Draw is the optional overlay attached to a created event.
type Draw struct {
	Boxes []DrawBox `json:"boxes"`
}

// CreateEventRequest carries everything optional about an event create.
// Nil Score/Duration/Draw are omitted from the wire payload entirely.
type CreateEventRequest struct {
	Camera           string
	Label            string
	SubLabel         string
	Score            *float64
	Duration         *int
	IncludeRecording bool
	Draw             *Draw
}

type eventPayload struct {
	SubLabel         string   `json:"sub_label"`
	Score            *float64 `json:"score,omitempty"`
	Duration         *int     `json:"duration,omitempty"`
	IncludeRecording bool     `json:"include_recording"`
	Draw             *Draw    `json:"draw,omitempty"`
}

// Client talks to the Frigate event API. Create failures are logged and
// swallowed so that a dead Frigate never blocks the decision loop.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     *slog.Logger
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	timeout := 3 * time.Second
	return &Client{
		baseURL: trimTrailingSlash(baseURL),
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
		log:     log.With("component", "frigate"),
	}
}

// BaseURL returns the normalized base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// CreateEvent posts a manual event and returns its id, or "" when the create
// failed or the response carried no id.
func (c *Client) CreateEvent(req CreateEventRequest) string {
	url := fmt.Sprintf("%s/api/events/%s/%s/create", c.baseURL, req.Camera, req.Label)
	payload := eventPayload{
		SubLabel:         req.SubLabel,
		Score:            req.Score,
		Duration:         req.Duration,
		IncludeRecording: req.IncludeRecording,
		Draw:             req.Draw,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		c.log.Warn("create event encode error", "url", url, "err", err)
		return ""
	}

	resp, err := c.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		c.log.Warn("create event request error", "url", url, "err", err)
		return ""
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 300 {
		c.log.Warn("create event failed", "url", url, "status", resp.StatusCode, "body", string(respBody))
		return ""
	}
	c.log.Info("create event success", "url", url, "payload", string(body), "status", resp.StatusCode)

	var parsed struct {
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ""
	}
	return parsed.EventID
}

// FetchEventMedia downloads the event snapshot and clip into outDir as
// {event_id}.jpg and {event_id}.mp4. Media that Frigate has not produced yet
// is logged at INFO and skipped.
func (c *Client) FetchEventMedia(eventID, outDir string) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		c.log.Info("event media dir error", "dir", outDir, "err", err)
		return
	}

	fetchTimeout := c.timeout
	if fetchTimeout < 10*time.Second {
		fetchTimeout = 10 * time.Second
	}
	client := &http.Client{Timeout: fetchTimeout}

	for _, m := range []struct{ media, ext string }{
		{"snapshot.jpg", "jpg"},
		{"clip.mp4", "mp4"},
	} {
		url := fmt.Sprintf("%s/api/events/%s/%s", c.baseURL, eventID, m.media)
		path := filepath.Join(outDir, eventID+"."+m.ext)

		resp, err := client.Get(url)
		if err != nil {
			c.log.Info("event media fetch failed", "url", url, "err", err)
			continue
		}
		content, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			c.log.Info("event media fetch failed", "url", url, "err", readErr)
			continue
		}
		if resp.StatusCode == http.StatusOK && len(content) > 0 {
			if err := os.WriteFile(path, content, 0o644); err != nil {
				c.log.Info("event media write failed", "path", path, "err", err)
				continue
			}
			c.log.Info("saved event media", "path", path)
		} else {
			c.log.Info("event media unavailable yet", "url", url, "status", resp.StatusCode)
		}
	}
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
