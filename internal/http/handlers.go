package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	nethttp "net/http"

	"dota-events-service/internal/domain"
	"dota-events-service/internal/feed"
	"dota-events-service/internal/logging"
	"dota-events-service/internal/session"
)

// Snapshots arrive every half second per viewer; anything over a megabyte is
// not a real GSI payload.
const maxSnapshotBytes = 1 << 20

// Handler wires HTTP routes to the feed pipeline.
type Handler struct {
	pipeline *feed.Pipeline
	logger   *slog.Logger
	ready    func() bool
}

// NewHandler constructs a Handler. ready may be nil, meaning always ready.
func NewHandler(pipeline *feed.Pipeline, logger *slog.Logger, ready func() bool) *Handler {
	return &Handler{pipeline: pipeline, logger: logger, ready: ready}
}

// Ingest accepts one GSI snapshot POST from a game client.
func (h *Handler) Ingest(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		h.writeError(w, nethttp.StatusMethodNotAllowed, "POST only")
		return
	}

	var snap domain.Snapshot
	body := nethttp.MaxBytesReader(w, r.Body, maxSnapshotBytes)
	if err := json.NewDecoder(body).Decode(&snap); err != nil {
		h.writeError(w, nethttp.StatusBadRequest, "malformed snapshot")
		return
	}
	// Drain so keep-alive connections can be reused.
	io.Copy(io.Discard, body)

	if err := h.pipeline.Process(r.Context(), &snap); err != nil {
		if errors.Is(err, session.ErrUnknownToken) {
			h.writeError(w, nethttp.StatusUnauthorized, "invalid token")
			return
		}
		logger := logging.FromContext(r.Context(), h.logger)
		logging.Error(logger, "snapshot processing failed", err)
		h.writeError(w, nethttp.StatusInternalServerError, "processing failed")
		return
	}

	h.writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"})
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, _ *nethttp.Request) {
	h.writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether dependencies are up and traffic is welcome.
func (h *Handler) Ready(w nethttp.ResponseWriter, _ *nethttp.Request) {
	if h.ready != nil && !h.ready() {
		h.writeError(w, nethttp.StatusServiceUnavailable, "not ready")
		return
	}
	h.writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && h.logger != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w nethttp.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
