package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// MirrorEvent is the JSON shape published to the NATS subject.
type MirrorEvent struct {
	Camera   string  `json:"camera"`
	Label    string  `json:"label"`
	Score    float64 `json:"score"`
	Duration int     `json:"duration"`
	SubLabel string  `json:"sub_label"`
	TS       int64   `json:"ts"`
}

// Mirror publishes every emitted event to a NATS subject so other systems
// can react without polling Frigate.
type Mirror struct {
	conn       *nats.Conn
	subject    string
	maxRetries int
}

// NewMirror connects to the NATS server. Callers decide whether a connect
// failure is fatal; a nil Mirror disables mirroring.
func NewMirror(url, subject string) (*Mirror, error) {
	conn, err := nats.Connect(url, nats.Name("safehaven-core"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Mirror{conn: conn, subject: subject, maxRetries: 3}, nil
}

func (m *Mirror) Publish(ev MirrorEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= m.maxRetries; i++ {
		err = m.conn.Publish(m.subject, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}
	return fmt.Errorf("publish failed after %d retries: %w", m.maxRetries, err)
}

func (m *Mirror) Close() {
	m.conn.Close()
}
