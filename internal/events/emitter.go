package events

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/safehaven/safehaven-core/internal/config"
	"github.com/safehaven/safehaven-core/internal/frigate"
	"github.com/safehaven/safehaven-core/internal/imaging"
	"github.com/safehaven/safehaven-core/internal/metrics"
)

// Event is one semantic event to emit. ROIFrame and Frame are optional
// evidence; ROI is the zone rectangle the event came from.
type Event struct {
	Camera   string
	Label    string
	Score    float64
	Duration int
	Extra    string
	ROI      *config.ROI
	ROIFrame *imaging.Frame
	Frame    *imaging.Frame
}

// Sink receives emitted events. The pipeline worker only sees this interface.
type Sink interface {
	Emit(ev Event)
}

// EventAPI is the slice of the Frigate client the emitter uses.
type EventAPI interface {
	CreateEvent(req frigate.CreateEventRequest) string
	FetchEventMedia(eventID, outDir string)
}

// Emitter turns semantic events into Frigate event creates, local evidence
// files, and an optional NATS mirror. Every step is best-effort: a failing
// downstream never propagates back into the decision loop.
type Emitter struct {
	api            EventAPI
	codec          imaging.Codec
	mirror         *Mirror
	evidenceDir    string
	saveEventMedia bool
	log            *slog.Logger
	now            func() time.Time
}

func NewEmitter(api EventAPI, codec imaging.Codec, mirror *Mirror, cfg *config.AppConfig, log *slog.Logger) *Emitter {
	return &Emitter{
		api:            api,
		codec:          codec,
		mirror:         mirror,
		evidenceDir:    cfg.EvidenceDir,
		saveEventMedia: cfg.SaveEventMedia,
		log:            log.With("component", "emitter"),
		now:            time.Now,
	}
}

// SubLabel formats the Frigate sub_label for an event.
func SubLabel(extra string, score float64) string {
	return fmt.Sprintf("%s conf=%.2f source=metis", extra, score)
}

func (e *Emitter) Emit(ev Event) {
	metrics.SemanticEvents.WithLabelValues(ev.Camera, ev.Label).Inc()
	subLabel := SubLabel(ev.Extra, ev.Score)
	e.log.Info("semantic event",
		"camera", ev.Camera,
		"label", ev.Label,
		"score", ev.Score,
		"duration", ev.Duration,
		"subLabel", subLabel,
	)

	var draw *frigate.Draw
	if ev.ROI != nil {
		// Frigate draw boxes use the raw ROI coordinates.
		draw = &frigate.Draw{Boxes: []frigate.DrawBox{{
			Box:   [4]float64{ev.ROI.X, ev.ROI.Y, ev.ROI.W, ev.ROI.H},
			Color: [3]int{0, 255, 0},
			Score: int(ev.Score*100 + 0.5),
		}}}
	}

	score := ev.Score
	duration := ev.Duration
	eventID := e.api.CreateEvent(frigate.CreateEventRequest{
		Camera:           ev.Camera,
		Label:            ev.Label,
		SubLabel:         subLabel,
		Score:            &score,
		Duration:         &duration,
		IncludeRecording: true,
		Draw:             draw,
	})

	evidenceDir := filepath.Join(e.evidenceDir, ev.Camera, ev.Label)
	if e.saveEventMedia && ev.ROIFrame != nil {
		e.saveEvidence(ev, evidenceDir)
	}
	if e.saveEventMedia && eventID != "" {
		e.api.FetchEventMedia(eventID, evidenceDir)
	}

	if e.mirror != nil {
		if err := e.mirror.Publish(MirrorEvent{
			Camera:   ev.Camera,
			Label:    ev.Label,
			Score:    ev.Score,
			Duration: ev.Duration,
			SubLabel: subLabel,
			TS:       e.now().Unix(),
		}); err != nil {
			e.log.Warn("event mirror publish failed", "label", ev.Label, "err", err)
		}
	}
}

func (e *Emitter) saveEvidence(ev Event, dir string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.log.Warn("evidence dir error", "dir", dir, "err", err)
		return
	}
	ts := e.now().Unix()

	roiJPEG, err := e.codec.EncodeJPEG(*ev.ROIFrame)
	if err != nil {
		e.log.Warn("encode roi evidence failed", "camera", ev.Camera, "err", err)
		return
	}
	roiPath := filepath.Join(dir, fmt.Sprintf("%d_roi.jpg", ts))
	if err := os.WriteFile(roiPath, roiJPEG, 0o644); err != nil {
		e.log.Warn("write roi evidence failed", "path", roiPath, "err", err)
		return
	}
	e.log.Info("saved local roi evidence", "path", roiPath)

	if ev.Frame == nil || ev.ROI == nil {
		return
	}
	rect := imaging.ROIPixels(*ev.ROI, ev.Frame.Width, ev.Frame.Height)
	caption := fmt.Sprintf("%s %.2f", ev.Label, ev.Score)
	annotated, err := e.codec.AnnotateROI(*ev.Frame, rect, caption)
	if err != nil {
		e.log.Warn("annotate evidence failed", "camera", ev.Camera, "err", err)
		return
	}
	fullJPEG, err := e.codec.EncodeJPEG(annotated)
	if err != nil {
		e.log.Warn("encode full evidence failed", "camera", ev.Camera, "err", err)
		return
	}
	fullPath := filepath.Join(dir, fmt.Sprintf("%d_full.jpg", ts))
	if err := os.WriteFile(fullPath, fullJPEG, 0o644); err != nil {
		e.log.Warn("write full evidence failed", "path", fullPath, "err", err)
		return
	}
	e.log.Info("saved local full-frame evidence", "path", fullPath)
}
