package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ROI is a rectangle on a camera frame. Coordinates at or below 1 are
// normalized fractions of the frame; larger values are absolute pixels.
type ROI struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	W float64 `yaml:"w" json:"w"`
	H float64 `yaml:"h" json:"h"`
}

// CameraConfig describes one RTSP camera and its named zone ROIs.
type CameraConfig struct {
	Name      string         `yaml:"name" json:"name"`
	StreamURL string         `yaml:"stream_url" json:"stream_url"`
	ROIs      map[string]ROI `yaml:"rois" json:"rois"`
}

// ClassIDs maps a zone's open/closed states to detector class ids.
type ClassIDs struct {
	Open   int `yaml:"open" json:"open"`
	Closed int `yaml:"closed" json:"closed"`
}

// AppConfig is immutable after Load.
type AppConfig struct {
	FrigateBaseURL     string
	MetisDetectorURL   string
	MQTTBroker         string // reserved, unused by the core
	SampleFPS          float64
	LeftOpenMinutes    int
	QueueMax           int
	MetricsPort        int
	HealthPort         int
	LogFormat          string
	LogLevel           string
	StateConfThreshold float64
	MetisTimeoutS      float64
	DebugStateEvery    int
	EmitBootEvent      bool
	EvidenceDir        string
	SaveEventMedia     bool
	DemoEmitIntervalS  int
	DemoZone           string
	RTSPTransport      string
	NATSURL            string
	NATSSubject        string
	RedisAddr          string
	DedupWarnings      bool
	ZoneClassMap       map[string]ClassIDs
	Cameras            []CameraConfig
}

// ErrNoCameras is fatal at startup.
var ErrNoCameras = errors.New("no cameras configured: set CAMERAS env or the cameras list in SAFEHAVEN_CONFIG")

type yamlFile struct {
	FrigateBaseURL     string                 `yaml:"frigate_base_url"`
	MetisDetectorURL   string                 `yaml:"metis_detector_url"`
	MQTTBroker         string                 `yaml:"mqtt_broker"`
	SampleFPS          *float64               `yaml:"sample_fps"`
	LeftOpenMinutes    *int                   `yaml:"left_open_minutes"`
	QueueMax           *int                   `yaml:"queue_max"`
	MetricsPort        *int                   `yaml:"metrics_port"`
	HealthPort         *int                   `yaml:"health_port"`
	LogFormat          string                 `yaml:"log_format"`
	LogLevel           string                 `yaml:"log_level"`
	StateConfThreshold *float64               `yaml:"state_conf_threshold"`
	MetisTimeoutS      *float64               `yaml:"metis_timeout_s"`
	DebugStateEvery    *int                   `yaml:"debug_state_every"`
	EmitBootEvent      *bool                  `yaml:"emit_boot_event"`
	EvidenceDir        string                 `yaml:"evidence_dir"`
	SaveEventMedia     *bool                  `yaml:"save_event_media"`
	DemoEmitIntervalS  *int                   `yaml:"demo_emit_interval_s"`
	DemoZone           string                 `yaml:"demo_zone"`
	RTSPTransport      string                 `yaml:"rtsp_transport"`
	NATSURL            string                 `yaml:"nats_url"`
	NATSSubject        string                 `yaml:"nats_subject"`
	RedisAddr          string                 `yaml:"redis_addr"`
	DedupWarnings      *bool                  `yaml:"dedup_warnings"`
	ZoneClassMap       map[string]ClassIDs    `yaml:"zone_class_map"`
	Cameras            []CameraConfig         `yaml:"cameras"`
}

// DefaultZoneClassMap matches the Metis training layout.
func DefaultZoneClassMap() map[string]ClassIDs {
	return map[string]ClassIDs{
		"garage": {Open: 0, Closed: 1},
		"gate":   {Open: 2, Closed: 3},
		"latch":  {Open: 4, Closed: 5},
	}
}

// Load reads SAFEHAVEN_CONFIG (default /config/safehaven.yml), applies env
// overrides, and validates. The CAMERAS and ZONE_CLASS_MAP env vars hold JSON
// blobs that wholly replace the corresponding YAML sections.
func Load() (*AppConfig, error) {
	path := getEnv("SAFEHAVEN_CONFIG", "/config/safehaven.yml")

	var raw yamlFile
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cameras := raw.Cameras
	if blob := os.Getenv("CAMERAS"); blob != "" {
		cameras = nil
		if err := json.Unmarshal([]byte(blob), &cameras); err != nil {
			return nil, fmt.Errorf("parse CAMERAS env: %w", err)
		}
	}
	if len(cameras) == 0 {
		return nil, ErrNoCameras
	}
	seen := make(map[string]bool, len(cameras))
	for _, cam := range cameras {
		if cam.Name == "" || cam.StreamURL == "" {
			return nil, fmt.Errorf("camera %q: name and stream_url are required", cam.Name)
		}
		if seen[cam.Name] {
			return nil, fmt.Errorf("duplicate camera name %q", cam.Name)
		}
		seen[cam.Name] = true
	}

	classMap := raw.ZoneClassMap
	if blob := os.Getenv("ZONE_CLASS_MAP"); blob != "" {
		classMap = nil
		if err := json.Unmarshal([]byte(blob), &classMap); err != nil {
			return nil, fmt.Errorf("parse ZONE_CLASS_MAP env: %w", err)
		}
	}
	if len(classMap) == 0 {
		classMap = DefaultZoneClassMap()
	}

	cfg := &AppConfig{
		FrigateBaseURL:     getEnv("FRIGATE_BASE_URL", withDefault(raw.FrigateBaseURL, "http://frigate:5000")),
		MetisDetectorURL:   getEnv("METIS_DETECTOR_URL", withDefault(raw.MetisDetectorURL, "http://metis-detector:8090/detect")),
		MQTTBroker:         getEnv("MQTT_BROKER", raw.MQTTBroker),
		SampleFPS:          getEnvFloat("SAMPLE_FPS", floatOr(raw.SampleFPS, 1)),
		LeftOpenMinutes:    getEnvInt("LEFT_OPEN_MINUTES", intOr(raw.LeftOpenMinutes, 7)),
		QueueMax:           getEnvInt("QUEUE_MAX", intOr(raw.QueueMax, 50)),
		MetricsPort:        getEnvInt("METRICS_PORT", intOr(raw.MetricsPort, 9108)),
		HealthPort:         getEnvInt("HEALTH_PORT", intOr(raw.HealthPort, 9109)),
		LogFormat:          getEnv("LOG_FORMAT", withDefault(raw.LogFormat, "text")),
		LogLevel:           getEnv("LOG_LEVEL", withDefault(raw.LogLevel, "INFO")),
		StateConfThreshold: getEnvFloat("STATE_CONF_THRESHOLD", floatOr(raw.StateConfThreshold, 0.5)),
		MetisTimeoutS:      getEnvFloat("METIS_TIMEOUT_S", floatOr(raw.MetisTimeoutS, 2.5)),
		DebugStateEvery:    getEnvInt("DEBUG_STATE_EVERY", intOr(raw.DebugStateEvery, 0)),
		EmitBootEvent:      getEnvBool("EMIT_BOOT_EVENT", boolOr(raw.EmitBootEvent, false)),
		EvidenceDir:        getEnv("EVIDENCE_DIR", withDefault(raw.EvidenceDir, "/tmp/safehaven_evidence")),
		SaveEventMedia:     getEnvBool("SAVE_EVENT_MEDIA", boolOr(raw.SaveEventMedia, true)),
		DemoEmitIntervalS:  getEnvInt("DEMO_EMIT_INTERVAL_S", intOr(raw.DemoEmitIntervalS, 0)),
		DemoZone:           getEnv("DEMO_ZONE", withDefault(raw.DemoZone, "latch")),
		RTSPTransport:      getEnv("RTSP_TRANSPORT", withDefault(raw.RTSPTransport, "tcp")),
		NATSURL:            getEnv("NATS_URL", raw.NATSURL),
		NATSSubject:        getEnv("NATS_SUBJECT", withDefault(raw.NATSSubject, "safehaven.events")),
		RedisAddr:          getEnv("REDIS_ADDR", raw.RedisAddr),
		DedupWarnings:      getEnvBool("DEDUP_WARNINGS", boolOr(raw.DedupWarnings, false)),
		ZoneClassMap:       classMap,
		Cameras:            cameras,
	}
	return cfg, nil
}

func withDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func floatOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "1" || v == "true" || v == "True"
	}
	return fallback
}
