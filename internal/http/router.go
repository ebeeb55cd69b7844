package http

import nethttp "net/http"

// NewRouter registers HTTP routes on a ServeMux. The game client posts its
// snapshots to the root path; that is fixed by the GSI config file format.
func NewRouter(handler *Handler, metricsHandler nethttp.Handler) nethttp.Handler {
	mux := nethttp.NewServeMux()
	mux.HandleFunc("/", handler.Ingest)
	mux.HandleFunc("/health", handler.Health)
	mux.HandleFunc("/ready", handler.Ready)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}
	return mux
}
