// mock-frigate is a stand-in for the Frigate event API during local runs.
// It accepts any event create, hands back a fresh event id, and serves stub
// media so the full emit path can be exercised without a real Frigate.
package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Minimal JPEG so snapshot fetches produce a non-empty file.
var stubJPEG = []byte{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x43, 0x00, 0xFF, 0xD9}

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "mock-frigate")

	port := 5001
	if v := os.Getenv("MOCK_FRIGATE_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	r := chi.NewRouter()

	ok := func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "mock-frigate"})
	}
	r.Get("/", ok)
	r.Get("/healthz", ok)
	r.Get("/api/version", ok)

	r.Post("/api/events/{camera}/{label}/create", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		log.Info("event create",
			"camera", chi.URLParam(req, "camera"),
			"label", chi.URLParam(req, "label"),
			"body", string(body),
		)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "event_id": uuid.New().String()})
	})

	r.Get("/api/events/{eventID}/snapshot.jpg", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(stubJPEG)
	})
	r.Get("/api/events/{eventID}/clip.mp4", func(w http.ResponseWriter, _ *http.Request) {
		// No clip in mock mode; the core logs this at INFO and moves on.
		w.WriteHeader(http.StatusNotFound)
	})

	log.Info("listening", "port", port)
	if err := http.ListenAndServe(":"+strconv.Itoa(port), r); err != nil {
		log.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
