package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "safehaven.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SAFEHAVEN_CONFIG", path)
}

const minimalYAML = `
cameras:
  - name: front
    stream_url: rtsp://cam1/stream
    rois:
      garage: {x: 0.1, y: 0.2, w: 0.5, h: 0.4}
`

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, minimalYAML)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://frigate:5000", cfg.FrigateBaseURL)
	assert.Equal(t, "http://metis-detector:8090/detect", cfg.MetisDetectorURL)
	assert.InDelta(t, 1.0, cfg.SampleFPS, 1e-9)
	assert.Equal(t, 7, cfg.LeftOpenMinutes)
	assert.Equal(t, 50, cfg.QueueMax)
	assert.Equal(t, 9108, cfg.MetricsPort)
	assert.Equal(t, 9109, cfg.HealthPort)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.InDelta(t, 0.5, cfg.StateConfThreshold, 1e-9)
	assert.InDelta(t, 2.5, cfg.MetisTimeoutS, 1e-9)
	assert.False(t, cfg.EmitBootEvent)
	assert.Equal(t, "/tmp/safehaven_evidence", cfg.EvidenceDir)
	assert.True(t, cfg.SaveEventMedia)
	assert.Equal(t, "latch", cfg.DemoZone)
	assert.Equal(t, "tcp", cfg.RTSPTransport)
	assert.Equal(t, "safehaven.events", cfg.NATSSubject)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.DedupWarnings)
	assert.Equal(t, DefaultZoneClassMap(), cfg.ZoneClassMap)

	require.Len(t, cfg.Cameras, 1)
	cam := cfg.Cameras[0]
	assert.Equal(t, "front", cam.Name)
	assert.Equal(t, "rtsp://cam1/stream", cam.StreamURL)
	assert.Equal(t, ROI{X: 0.1, Y: 0.2, W: 0.5, H: 0.4}, cam.ROIs["garage"])
}

func TestLoad_YAMLValues(t *testing.T) {
	writeConfig(t, `
frigate_base_url: http://fr:5000
metis_detector_url: http://mt:8090/detect
sample_fps: 2.5
left_open_minutes: 3
queue_max: 10
log_format: json
state_conf_threshold: 0.7
dedup_warnings: true
zone_class_map:
  garage: {open: 10, closed: 11}
cameras:
  - name: front
    stream_url: rtsp://cam1/stream
    rois:
      garage: {x: 0, y: 0, w: 1, h: 1}
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://fr:5000", cfg.FrigateBaseURL)
	assert.InDelta(t, 2.5, cfg.SampleFPS, 1e-9)
	assert.Equal(t, 3, cfg.LeftOpenMinutes)
	assert.Equal(t, 10, cfg.QueueMax)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.InDelta(t, 0.7, cfg.StateConfThreshold, 1e-9)
	assert.True(t, cfg.DedupWarnings)
	assert.Equal(t, ClassIDs{Open: 10, Closed: 11}, cfg.ZoneClassMap["garage"])
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeConfig(t, `
sample_fps: 2
left_open_minutes: 3
`+minimalYAML)
	t.Setenv("SAMPLE_FPS", "5")
	t.Setenv("LEFT_OPEN_MINUTES", "12")
	t.Setenv("FRIGATE_BASE_URL", "http://other:5000")
	t.Setenv("EMIT_BOOT_EVENT", "true")
	t.Setenv("SAVE_EVENT_MEDIA", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, cfg.SampleFPS, 1e-9)
	assert.Equal(t, 12, cfg.LeftOpenMinutes)
	assert.Equal(t, "http://other:5000", cfg.FrigateBaseURL)
	assert.True(t, cfg.EmitBootEvent)
	assert.False(t, cfg.SaveEventMedia)
}

func TestLoad_CamerasEnvReplacesYAML(t *testing.T) {
	writeConfig(t, minimalYAML)
	t.Setenv("CAMERAS", `[{"name":"back","stream_url":"rtsp://cam2/s","rois":{"gate":{"x":0,"y":0,"w":1,"h":1}}}]`)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Cameras, 1)
	assert.Equal(t, "back", cfg.Cameras[0].Name)
	assert.Contains(t, cfg.Cameras[0].ROIs, "gate")
}

func TestLoad_ZoneClassMapEnvReplacesYAML(t *testing.T) {
	writeConfig(t, minimalYAML)
	t.Setenv("ZONE_CLASS_MAP", `{"gate":{"open":7,"closed":8}}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]ClassIDs{"gate": {Open: 7, Closed: 8}}, cfg.ZoneClassMap)
}

func TestLoad_NoCamerasFails(t *testing.T) {
	writeConfig(t, "sample_fps: 1\n")

	_, err := Load()
	assert.ErrorIs(t, err, ErrNoCameras)
}

func TestLoad_MissingFileWithCamerasEnv(t *testing.T) {
	t.Setenv("SAFEHAVEN_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))
	t.Setenv("CAMERAS", `[{"name":"front","stream_url":"rtsp://cam1/s","rois":{}}]`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Len(t, cfg.Cameras, 1)
}

func TestLoad_DuplicateCameraNames(t *testing.T) {
	writeConfig(t, `
cameras:
  - name: front
    stream_url: rtsp://a/s
  - name: front
    stream_url: rtsp://b/s
`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate camera name")
}

func TestLoad_CameraMissingFields(t *testing.T) {
	writeConfig(t, `
cameras:
  - name: front
`)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream_url")
}

func TestLoad_BadCamerasEnv(t *testing.T) {
	writeConfig(t, minimalYAML)
	t.Setenv("CAMERAS", `{not json`)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_BadYAML(t *testing.T) {
	writeConfig(t, "cameras: [unclosed")

	_, err := Load()
	assert.Error(t, err)
}
