package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jboss-openshift/openshift-kieserver/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Count  *int   `json:"count,omitempty"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	RoutingMode string                     `json:"routing_mode"`
	Components  map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"deployments": checkDeployments(d),
			"templates":   count(d.Templates != nil, templatesLen(d)),
			"services":    count(d.Methods != nil, methodsLen(d)),
			"lookup":      checkLookup(r.Context(), d),
			"relay":       checkRelay(d),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(infraResponse{
			RoutingMode: determineRoutingMode(components),
			Components:  components,
		})
	}
}

// determineRoutingMode: "critical" when nothing can be resolved, "degraded" when
// instance lookups are unavailable, "full" otherwise.
func determineRoutingMode(components map[string]componentStatus) string {
	if c, ok := components["deployments"]; ok && !c.OK {
		return "critical"
	}
	if c, ok := components["lookup"]; ok && !c.OK {
		return "degraded"
	}
	return "full"
}

func checkDeployments(d deps.Deps) componentStatus {
	if d.Registry == nil {
		return componentStatus{OK: false, Error: "registry not initialized"}
	}
	n := len(d.Registry.Mappings())
	mode := "alias"
	if d.Registry.IsRedirectEnabled() {
		mode = "redirect"
	}
	return componentStatus{OK: n > 0, Count: &n, Mode: mode}
}

func checkLookup(ctx context.Context, d deps.Deps) componentStatus {
	if d.Lookup == nil || d.LookupBackend == "" || d.LookupBackend == "none" {
		return componentStatus{
			OK:     true,
			Mode:   "none",
			Impact: "alias-and-conversation-only",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := d.Lookup.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.LookupBackend,
			Impact: "instance-lookups-disabled",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.LookupBackend, Impact: "instance-lookups-enabled"}
}

func checkRelay(d deps.Deps) componentStatus {
	if !d.RelayEnabled {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	if d.RedisClient == nil {
		return componentStatus{OK: false, Mode: "redis-streams", Error: "client not initialized"}
	}
	return componentStatus{OK: true, Mode: "redis-streams"}
}

func count(ok bool, n int) componentStatus {
	return componentStatus{OK: ok && n > 0, Count: &n}
}

func templatesLen(d deps.Deps) int {
	if d.Templates == nil {
		return 0
	}
	return d.Templates.Len()
}

func methodsLen(d deps.Deps) int {
	if d.Methods == nil {
		return 0
	}
	return d.Methods.Len()
}
