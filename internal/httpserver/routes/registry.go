package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/mw"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

type (
	Registrar func(r chi.Router, d deps.Deps)
	// Guard builds a middleware once the dependencies are known.
	Guard func(d deps.Deps) func(http.Handler) http.Handler
)

type group struct {
	name   string
	reg    Registrar
	guards []Guard
}

var groups []group

// Register adds a named route group guarded by the given middlewares.
func Register(name string, reg Registrar, guards ...Guard) {
	groups = append(groups, group{name: name, reg: reg, guards: guards})
}

// Groups lists the registered group names in registration order.
func Groups() []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.name
	}
	return out
}

// Called once from server.NewRouter()
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		d.Logger.Debug("registering routes",
			logger.String("group", g.name),
			logger.Int("guards", len(g.guards)))
		if len(g.guards) == 0 {
			g.reg(r, d)
			continue
		}
		mws := make([]func(http.Handler) http.Handler, len(g.guards))
		for i, guard := range g.guards {
			mws[i] = guard(d)
		}
		g.reg(r.With(mws...), d)
	}
}

// cidrGuard restricts a group to ALLOWED_CIDRS.
func cidrGuard(d deps.Deps) func(http.Handler) http.Handler {
	return mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger)
}

// hostGuard restricts a group to ALLOWED_HOSTS.
func hostGuard(d deps.Deps) func(http.Handler) http.Handler {
	return mw.EnforceHost(d.AllowedHosts, d.Logger)
}
