// safehaven-core samples RTSP cameras, asks the Metis detector what each
// configured zone looks like, debounces the answers into zone state, and
// emits semantic events to Frigate.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/safehaven/safehaven-core/internal/config"
	"github.com/safehaven/safehaven-core/internal/detect"
	"github.com/safehaven/safehaven-core/internal/events"
	"github.com/safehaven/safehaven-core/internal/frigate"
	"github.com/safehaven/safehaven-core/internal/health"
	"github.com/safehaven/safehaven-core/internal/imaging"
	"github.com/safehaven/safehaven-core/internal/metrics"
	"github.com/safehaven/safehaven-core/internal/pipeline"
	"github.com/safehaven/safehaven-core/internal/source"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(log)

	readiness := health.NewReadinessState()
	go func() {
		if err := health.ListenAndServe(cfg.HealthPort, readiness); err != nil {
			log.Error("health server failed", "err", err)
			os.Exit(1)
		}
	}()
	go func() {
		if err := metrics.ListenAndServe(cfg.MetricsPort); err != nil {
			log.Error("metrics server failed", "err", err)
			os.Exit(1)
		}
	}()

	probe := health.NewProbe(cfg.FrigateBaseURL, cfg.MetisDetectorURL, readiness, log)
	probe.Start()

	frigateClient := frigate.NewClient(cfg.FrigateBaseURL, log)
	codec := imaging.NewJPEGCodec()

	var mirror *events.Mirror
	if cfg.NATSURL != "" {
		mirror, err = events.NewMirror(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Warn("event mirror disabled", "url", cfg.NATSURL, "err", err)
			mirror = nil
		}
	}

	var latest *events.LatestCache
	if cfg.RedisAddr != "" {
		latest = events.NewLatestCache(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	emitter := events.NewEmitter(frigateClient, codec, mirror, cfg, log)

	if cfg.EmitBootEvent && len(cfg.Cameras) > 0 {
		first := cfg.Cameras[0]
		var roi *config.ROI
		if r, ok := first.ROIs[cfg.DemoZone]; ok {
			roi = &r
		}
		emitter.Emit(events.Event{
			Camera:   first.Name,
			Label:    "safehaven_boot",
			Score:    1.0,
			Duration: 5,
			Extra:    "source=safehaven-core",
			ROI:      roi,
		})
	}

	detector := detect.NewClient(cfg.MetisDetectorURL, time.Duration(cfg.MetisTimeoutS*float64(time.Second)))

	var names []string
	for _, cam := range cfg.Cameras {
		src, err := source.New(cam.StreamURL, source.Options{
			RTSPTransport: cfg.RTSPTransport,
			Codec:         codec,
		})
		if err != nil {
			log.Error("camera source setup failed", "camera", cam.Name, "err", err)
			os.Exit(1)
		}

		queue := pipeline.NewFrameQueue(cam.Name, cfg.QueueMax)
		sampler := pipeline.NewSampler(cam.Name, src, queue, cfg.SampleFPS, log)
		worker := pipeline.NewWorker(cam, cfg, queue, detector, emitter, codec, latest, log)
		sampler.Start()
		worker.Start()
		names = append(names, cam.Name)
	}

	log.Info("safehaven-core started",
		"cameras", strings.Join(names, ","),
		"metricsPort", cfg.MetricsPort,
		"healthPort", cfg.HealthPort,
		"logFormat", cfg.LogFormat,
		"pid", os.Getpid(),
	)
	select {}
}

func newLogger(format, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "WARN", "WARNING":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
