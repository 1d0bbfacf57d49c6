package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/handlers"
)

func init() { Register("admin", registerAdmin, cidrGuard, hostGuard) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Get("/infra", handlers.Infra(d))
	r.Get("/state", handlers.State(d))
	r.Get("/routes", handlers.Routes(d))
	r.Method("GET", "/metrics", d.Metrics.Handler())
}
