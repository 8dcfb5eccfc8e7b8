package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/safehaven/safehaven-core/internal/config"
	"github.com/safehaven/safehaven-core/internal/detect"
	"github.com/safehaven/safehaven-core/internal/events"
	"github.com/safehaven/safehaven-core/internal/imaging"
	"github.com/safehaven/safehaven-core/internal/metrics"
	"github.com/safehaven/safehaven-core/internal/state"
)

// Detector runs one inference round trip on an ROI JPEG.
type Detector interface {
	Detect(jpeg []byte) ([]detect.Detection, error)
}

// Worker drains one camera's queue, reduces each configured zone to an
// observation, drives the per-zone state machines, and emits events.
type Worker struct {
	camera   config.CameraConfig
	cfg      *config.AppConfig
	queue    *FrameQueue
	detector Detector
	sink     events.Sink
	codec    imaging.Codec
	latest   *events.LatestCache
	dedup    *WarnDedup
	log      *slog.Logger

	zones    []string
	machines map[string]*state.Machine

	debugCounter int
	lastDemoEmit time.Time

	stopChan chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewWorker(camera config.CameraConfig, cfg *config.AppConfig, queue *FrameQueue, detector Detector, sink events.Sink, codec imaging.Codec, latest *events.LatestCache, log *slog.Logger) *Worker {
	leftOpenSeconds := float64(cfg.LeftOpenMinutes) * 60

	machines := make(map[string]*state.Machine)
	var zones []string
	for zone := range camera.ROIs {
		spec, ok := state.ZoneSpecs[zone]
		if !ok {
			continue
		}
		if _, ok := cfg.ZoneClassMap[zone]; !ok {
			continue
		}
		machines[zone] = state.NewMachine(zone, spec, leftOpenSeconds, 0, 0)
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	var dedup *WarnDedup
	if cfg.DedupWarnings {
		dedup = NewWarnDedup(256, 30*time.Second)
	}

	return &Worker{
		camera:   camera,
		cfg:      cfg,
		queue:    queue,
		detector: detector,
		sink:     sink,
		codec:    codec,
		latest:   latest,
		dedup:    dedup,
		log:      log.With("component", "worker", "camera", camera.Name),
		zones:    zones,
		machines: machines,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.run()
}

func (w *Worker) Stop() {
	close(w.stopChan)
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()
	for {
		sample, ok := w.queue.Wait(w.stopChan)
		if !ok {
			return
		}
		w.ProcessSample(sample)
	}
}

// ProcessSample runs the full decision pass for one frame. Zones are visited
// in sorted order so a frame always produces the same event sequence.
func (w *Worker) ProcessSample(sample Sample) {
	now := w.now()

	for _, zone := range w.zones {
		roi := w.camera.ROIs[zone]
		machine := w.machines[zone]
		ids := w.cfg.ZoneClassMap[zone]

		roiFrame := imaging.CropROI(sample.Frame, roi)
		observed, score, err := w.observe(roiFrame, ids)
		if err != nil {
			if w.dedup == nil || w.dedup.ShouldLog(w.camera.Name, zone) {
				w.log.Warn("inference error", "zone", zone, "err", err)
			}
			observed, score = state.StateUnknown, 0
		}

		out := machine.Update(observed, now)

		w.debugCounter++
		if w.cfg.DebugStateEvery > 0 && w.debugCounter%w.cfg.DebugStateEvery == 0 {
			w.log.Info("state debug",
				"zone", zone,
				"observed", string(observed),
				"score", score,
				"threshold", w.cfg.StateConfThreshold,
				"currentState", string(machine.State()),
			)
		}

		if w.latest != nil {
			obs := events.Observation{
				Camera: w.camera.Name,
				Zone:   zone,
				State:  string(observed),
				Score:  score,
				TS:     now.Unix(),
			}
			if err := w.latest.Save(context.Background(), obs); err != nil {
				w.log.Debug("latest observation save failed", "zone", zone, "err", err)
			}
		}

		roiCopy := roi
		if out.TransitionEvent != "" {
			w.sink.Emit(events.Event{
				Camera:   w.camera.Name,
				Label:    out.TransitionEvent,
				Score:    score,
				Duration: 15,
				Extra:    fmt.Sprintf("zone=%s state=%s", zone, observed),
				ROI:      &roiCopy,
				ROIFrame: &roiFrame,
				Frame:    &sample.Frame,
			})
		}
		if out.LeftOpenEvent != "" {
			w.sink.Emit(events.Event{
				Camera:   w.camera.Name,
				Label:    out.LeftOpenEvent,
				Score:    max(0.5, score),
				Duration: 30,
				Extra:    fmt.Sprintf("zone=%s open_for=%dm", zone, w.cfg.LeftOpenMinutes),
				ROI:      &roiCopy,
				ROIFrame: &roiFrame,
				Frame:    &sample.Frame,
			})
		}

		if w.cfg.DemoEmitIntervalS > 0 &&
			zone == w.cfg.DemoZone &&
			observed != state.StateUnknown &&
			now.Sub(w.lastDemoEmit) >= time.Duration(w.cfg.DemoEmitIntervalS)*time.Second {
			w.sink.Emit(events.Event{
				Camera:   w.camera.Name,
				Label:    fmt.Sprintf("%s_%s_status", zone, observed),
				Score:    score,
				Duration: max(5, w.cfg.DemoEmitIntervalS),
				Extra:    fmt.Sprintf("demo=true zone=%s observed=%s", zone, observed),
				ROI:      &roiCopy,
				ROIFrame: &roiFrame,
				Frame:    &sample.Frame,
			})
			w.lastDemoEmit = now
		}
	}

	e2e := w.now().Sub(sample.CapturedAt)
	metrics.E2EMS.Observe(float64(e2e) / float64(time.Millisecond))
}

func (w *Worker) observe(roiFrame imaging.Frame, ids config.ClassIDs) (state.ZoneState, float64, error) {
	jpeg, err := w.codec.EncodeJPEG(roiFrame)
	if err != nil {
		return state.StateUnknown, 0, fmt.Errorf("encode roi: %w", err)
	}
	dets, err := w.detector.Detect(jpeg)
	if err != nil {
		return state.StateUnknown, 0, err
	}
	observed, score := detect.ReduceZoneState(dets, ids, w.cfg.StateConfThreshold)
	return observed, score, nil
}
