package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/mw"
)

func init() { Register("proxy", registerProxy) }

// registerProxy sends everything the admin routes do not claim to the KIE server.
func registerProxy(r chi.Router, d deps.Deps) {
	if d.Upstream == nil {
		return
	}
	r.With(mw.Redirect(mw.RedirectOptions{
		Base:               d.RestBase,
		ConversationHeader: d.ConversationHeader,
		Templates:          d.Templates,
		Resolver:           d.Resolver,
		Metrics:            d.Metrics,
	}, d.Logger)).Handle("/*", d.Upstream)
}
