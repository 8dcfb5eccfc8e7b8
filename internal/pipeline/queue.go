package pipeline

import (
	"sync"
	"time"

	"github.com/safehaven/safehaven-core/internal/imaging"
	"github.com/safehaven/safehaven-core/internal/metrics"
)

// Sample is one captured frame with its capture timestamp.
type Sample struct {
	Frame      imaging.Frame
	CapturedAt time.Time
}

// FrameQueue is a bounded latest-wins queue between one sampler and one
// worker. When full, the oldest samples are evicted to make room so the
// worker always sees the freshest backlog.
type FrameQueue struct {
	camera string
	ch     chan Sample
	mu     sync.Mutex // serializes evict-then-enqueue on the producer side
}

func NewFrameQueue(camera string, capacity int) *FrameQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &FrameQueue{
		camera: camera,
		ch:     make(chan Sample, capacity),
	}
}

// Put enqueues a sample, evicting the oldest entries if the queue is full.
// Returns how many samples were dropped.
func (q *FrameQueue) Put(s Sample) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := 0
	for {
		select {
		case q.ch <- s:
			if dropped > 0 {
				metrics.DroppedSamples.WithLabelValues(q.camera).Add(float64(dropped))
			}
			metrics.QueueDepth.WithLabelValues(q.camera).Set(float64(len(q.ch)))
			return dropped
		default:
			select {
			case <-q.ch:
				dropped++
			default:
				// Consumer drained it between checks; retry the send.
			}
		}
	}
}

// Get blocks until a sample is available.
func (q *FrameQueue) Get() Sample {
	s := <-q.ch
	metrics.QueueDepth.WithLabelValues(q.camera).Set(float64(len(q.ch)))
	return s
}

// Wait blocks for the next sample or until stop closes.
func (q *FrameQueue) Wait(stop <-chan struct{}) (Sample, bool) {
	select {
	case s := <-q.ch:
		metrics.QueueDepth.WithLabelValues(q.camera).Set(float64(len(q.ch)))
		return s, true
	case <-stop:
		return Sample{}, false
	}
}

// Len returns the current depth.
func (q *FrameQueue) Len() int { return len(q.ch) }
