package pipeline

import (
	"log/slog"
	"sync"
	"time"

	"github.com/safehaven/safehaven-core/internal/source"
)

const (
	reconnectBackoffMin = time.Second
	reconnectBackoffMax = 10 * time.Second
)

// Sampler pulls frames from one camera at a fixed rate and feeds the queue.
// It owns the reconnect policy: exponential backoff between open attempts,
// reset once a stream opens.
type Sampler struct {
	camera    string
	src       source.FrameSource
	queue     *FrameQueue
	sampleFPS float64
	log       *slog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewSampler(camera string, src source.FrameSource, queue *FrameQueue, sampleFPS float64, log *slog.Logger) *Sampler {
	return &Sampler{
		camera:    camera,
		src:       src,
		queue:     queue,
		sampleFPS: sampleFPS,
		log:       log.With("component", "sampler", "camera", camera),
		stopChan:  make(chan struct{}),
		now:       time.Now,
	}
}

// Start launches the sampling loop.
func (s *Sampler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop terminates the loop and waits for it.
func (s *Sampler) Stop() {
	close(s.stopChan)
	s.src.Close()
	s.wg.Wait()
}

func (s *Sampler) run() {
	defer s.wg.Done()

	fps := s.sampleFPS
	if fps < 0.1 {
		fps = 0.1
	}
	interval := time.Duration(float64(time.Second) / fps)
	backoff := reconnectBackoffMin
	open := false

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		if !open {
			if err := s.src.Open(); err != nil {
				s.log.Warn("stream open failed", "err", err, "backoff", backoff)
				if !s.sleep(backoff) {
					return
				}
				backoff = min(reconnectBackoffMax, backoff*2)
				continue
			}
			open = true
			backoff = reconnectBackoffMin
		}

		start := s.now()
		frame, err := s.src.ReadFrame()
		if err != nil {
			s.log.Warn("stream read failed", "err", err, "backoff", backoff)
			s.src.Close()
			open = false
			if !s.sleep(backoff) {
				return
			}
			backoff = min(reconnectBackoffMax, backoff*2)
			continue
		}

		dropped := s.queue.Put(Sample{Frame: frame, CapturedAt: start})
		if dropped > 0 {
			s.log.Debug("evicted stale samples", "dropped", dropped)
		}

		if wait := interval - s.now().Sub(start); wait > 0 {
			if !s.sleep(wait) {
				return
			}
		}
	}
}

// sleep waits d or until stop; false means stop was requested.
func (s *Sampler) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.stopChan:
		return false
	case <-t.C:
		return true
	}
}
