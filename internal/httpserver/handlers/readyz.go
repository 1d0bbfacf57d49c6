package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the lookup backend answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := readyzResponse{Ready: true}
		status := http.StatusOK

		if d.Lookup != nil {
			ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
			err := d.Lookup.Ping(ctx)
			cancel()
			if err != nil {
				resp = readyzResponse{Ready: false, Error: err.Error()}
				status = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
