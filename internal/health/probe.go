package health

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	probeInterval = 5 * time.Second
	probeTimeout  = 2 * time.Second
)

// MetisHealthURL derives the detector's health endpoint from its detect URL.
// A path ending in /detect maps to a sibling /healthz; anything else probes
// /healthz at the root.
func MetisHealthURL(detectURL string) string {
	parsed, err := url.Parse(detectURL)
	if err != nil {
		return detectURL
	}
	path := parsed.Path
	if strings.HasSuffix(path, "/detect") {
		path = path[:strings.LastIndex(path, "/")] + "/healthz"
	} else {
		path = "/healthz"
	}
	parsed.Path = path
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// Probe polls Frigate and the Metis detector and feeds the readiness state.
type Probe struct {
	frigateURL string
	metisURL   string
	state      *ReadinessState
	http       *http.Client
	log        *slog.Logger

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewProbe takes the Frigate base URL and the Metis detect URL; it derives
// the two health endpoints itself.
func NewProbe(frigateBaseURL, metisDetectURL string, state *ReadinessState, log *slog.Logger) *Probe {
	return &Probe{
		frigateURL: strings.TrimRight(frigateBaseURL, "/") + "/api/version",
		metisURL:   MetisHealthURL(metisDetectURL),
		state:      state,
		http:       &http.Client{Timeout: probeTimeout},
		log:        log.With("component", "probe"),
		stopChan:   make(chan struct{}),
	}
}

func (p *Probe) Start() {
	p.wg.Add(1)
	go p.run()
}

func (p *Probe) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Probe) run() {
	defer p.wg.Done()
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	p.check()
	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.check()
		}
	}
}

func (p *Probe) check() {
	details := map[string]bool{
		"frigate":        p.isUp(p.frigateURL),
		"metis_detector": p.isUp(p.metisURL),
	}
	before := p.state.Get().Ready
	p.state.Set(details)
	after := p.state.Get().Ready
	if before != after {
		p.log.Info("readiness changed", "ready", after, "frigate", details["frigate"], "metisDetector", details["metis_detector"])
	}
}

// isUp treats any response below 500 as alive; 4xx still proves the service
// is answering.
func (p *Probe) isUp(url string) bool {
	resp, err := p.http.Get(url)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
