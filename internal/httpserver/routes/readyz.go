package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/handlers"
)

func init() { Register("probes", registerProbes, cidrGuard) }

// Probes skip the host check, kubelet calls them by pod IP.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.Get("/readyz", handlers.Readyz(d))
}
